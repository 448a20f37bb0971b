package review

import (
	"sync"

	"github.com/bryanwahyu/fixgate/internal/application"
	"github.com/bryanwahyu/fixgate/internal/domain/audit"
	"github.com/bryanwahyu/fixgate/internal/domain/failures"
	"github.com/bryanwahyu/fixgate/internal/domain/submissions"
)

// Sessions hands out one Service per session id. Each session is the single
// logical owner of its submission and trail; the registry only guards the
// map itself.
type Sessions struct {
	Engine    submissions.Engine
	AuditRepo audit.Repository
	Failures  failures.Repository
	Snapshots submissions.SnapshotStore
	Clock     application.Clock

	mu       sync.Mutex
	services map[string]*Service
}

// Get returns the session's service, creating it on first use.
func (r *Sessions) Get(session string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.services == nil {
		r.services = make(map[string]*Service)
	}
	if svc, ok := r.services[session]; ok {
		return svc
	}

	clock := r.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	svc := &Service{
		SessionID: session,
		Engine:    r.Engine,
		AuditRepo: r.AuditRepo,
		Failures:  r.Failures,
		Snapshots: r.Snapshots,
		Clock:     clock,
	}
	r.services[session] = svc
	return svc
}
