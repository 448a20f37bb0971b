package failures

import "time"

// Failure represents a persisted engine failure entry, kept for operators;
// the review state machine itself never consumes these.
type Failure struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Phase     string    `json:"phase,omitempty"` // analyze | archive | other
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
