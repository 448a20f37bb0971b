package audit

import "context"

// Repository port for durable decision storage. The in-memory trail is the
// session's mirror of record; writes here are best-effort.
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	ListBySession(ctx context.Context, session string, limit int) ([]*Entry, error)
}
