package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bryanwahyu/fixgate/internal/application"
	"github.com/bryanwahyu/fixgate/internal/domain/audit"
	"github.com/bryanwahyu/fixgate/internal/domain/failures"
	"github.com/bryanwahyu/fixgate/internal/domain/submissions"
)

// Service implements use-cases for one review session: it drives the
// analysis engine, owns the current Submission and records decisions.
//
// The current submission lives behind an atomic pointer; every transition
// swaps in a freshly built value (replace, never mutate), so concurrent
// readers always see either the old or the new submission in full.
type Service struct {
	SessionID string
	Engine    submissions.Engine
	AuditRepo audit.Repository          // optional durable write-through
	Failures  failures.Repository       // optional, best-effort
	Snapshots submissions.SnapshotStore // optional, best-effort
	Clock     application.Clock

	current atomic.Pointer[submissions.Submission]
	trail   audit.Trail
}

// Submit runs one analysis request and applies the outcome. A fresh request
// always restarts evaluation from scratch: whatever submission preceded it is
// discarded wholesale. On engine failure no state changes and the error wraps
// submissions.ErrEngineUnavailable.
func (s *Service) Submit(ctx context.Context, inputData any) (*submissions.Submission, error) {
	out, err := s.Engine.Analyze(ctx, inputData)
	if err != nil {
		s.recordFailure(ctx, "analyze", err)
		return nil, err
	}

	now := s.Clock.Now()
	var sub *submissions.Submission
	if out.Pending {
		sub = submissions.NewPending(s.SessionID, out.Message, now)
	} else {
		sub = submissions.NewCompleted(s.SessionID, out.ID, out.Issues, out.Dashboard, now)
		sub.SnapshotURL = s.archive(ctx, sub)
	}

	s.current.Store(sub)
	return sub, nil
}

// Decide applies a human decision to the active submission. When no active
// submission matches the given id the call is a silent no-op (nil, nil);
// spurious or stale clicks are expected under rapid re-submission. Once a
// valid submission exists the operation never fails.
func (s *Service) Decide(ctx context.Context, id submissions.ID, approved bool, approver, comment string) (*audit.Entry, error) {
	cur := s.current.Load()
	if !cur.Active() || cur.ID != id {
		return nil, nil
	}

	st := audit.StatusRejected
	if approved {
		st = audit.StatusApproved
	}
	if comment == "" {
		comment = audit.DefaultComment(st)
	}

	entry := audit.Entry{
		ID:           audit.EntryID(uuid.New().String()),
		SessionID:    s.SessionID,
		SubmissionID: string(cur.ID),
		Timestamp:    s.Clock.Now(),
		Status:       st,
		Approver:     approver,
		Comment:      comment,
	}

	s.trail.Append(entry)
	if s.AuditRepo != nil {
		if err := s.AuditRepo.Save(ctx, &entry); err != nil {
			log.Printf("audit write-through failed: session=%s submission=%s: %v",
				s.SessionID, cur.ID, err)
		}
	}

	// approval ends the review phase, not the visibility of what was
	// reviewed; CAS so a decision losing a race against a fresh submission
	// cannot clobber the newer value
	s.current.CompareAndSwap(cur, cur.Resolved())
	return &entry, nil
}

// Current returns the session's submission, or nil when none exists.
func (s *Service) Current() *submissions.Submission {
	return s.current.Load()
}

// Trail returns the session's decisions in insertion order.
func (s *Service) Trail() []audit.Entry {
	return s.trail.Entries()
}

// Summary rekap status review saat ini
func (s *Service) Summary() map[string]any {
	cur := s.current.Load()
	if cur == nil {
		return map[string]any{"state": string(submissions.StateIdle)}
	}
	out := map[string]any{
		"state":       string(cur.State),
		"issue_count": len(cur.Issues),
		"fix_count":   len(cur.Fixes),
	}
	if cur.ID != "" {
		out["submission_id"] = string(cur.ID)
	}
	if cur.PendingMessage != "" {
		out["pending_message"] = cur.PendingMessage
	}
	return out
}

// archive uploads the completed submission as a JSON snapshot. Failures are
// logged and swallowed; archival never blocks the review flow.
func (s *Service) archive(ctx context.Context, sub *submissions.Submission) string {
	if s.Snapshots == nil {
		return ""
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return ""
	}
	key := fmt.Sprintf("%s/%s/%d.json", s.SessionID, sub.ID, s.Clock.Now().UnixNano())
	url, err := s.Snapshots.Archive(ctx, key, data)
	if err != nil {
		s.recordFailure(ctx, "archive", err)
		return ""
	}
	return url
}

func (s *Service) recordFailure(ctx context.Context, phase string, cause error) {
	log.Printf("engine failure: session=%s phase=%s: %v", s.SessionID, phase, cause)
	if s.Failures == nil {
		return
	}
	f := &failures.Failure{
		SessionID: s.SessionID,
		Phase:     phase,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Failures.Save(ctx, f); err != nil {
		log.Printf("failure log write error: %v", err)
	}
}
