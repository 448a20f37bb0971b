package failures

import (
	"context"
)

// Repository defines persistence for engine failures
type Repository interface {
	Save(ctx context.Context, f *Failure) error
	ListBySession(ctx context.Context, session string, limit int) ([]*Failure, error)
}
