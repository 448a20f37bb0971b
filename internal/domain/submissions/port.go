package submissions

import (
	"context"
	"encoding/json"
)

// Outcome is the classified result of one analysis request.
// Exactly one of the two shapes applies: a pending verdict carries only the
// Message; a completed result carries ID, Issues and Dashboard (each may be
// empty / absent).
type Outcome struct {
	Pending   bool
	Message   string
	ID        ID
	Issues    []json.RawMessage
	Dashboard json.RawMessage
}

// Engine port (interface untuk external analysis engine)
type Engine interface {
	Analyze(ctx context.Context, inputData any) (Outcome, error)
}

// SnapshotStore port for archiving raw analysis results
type SnapshotStore interface {
	Archive(ctx context.Context, key string, data []byte) (string, error)
}
