package audit

import "time"

// EntryID identifier type
type EntryID string

// Status enum for a recorded decision
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DefaultComment returns the templated rationale used when the caller
// supplies none.
func DefaultComment(st Status) string {
	if st == StatusApproved {
		return "Approved by user"
	}
	return "Rejected by user"
}

// Entry represents one approval decision. Entries are immutable once
// appended to a trail.
type Entry struct {
	ID           EntryID   `json:"id"`
	SessionID    string    `json:"session_id"`
	SubmissionID string    `json:"submission_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       Status    `json:"status"`
	Approver     string    `json:"approver"`
	Comment      string    `json:"comment"`
}
