package submissions

import (
	"encoding/json"
	"time"
)

// ID tipe untuk Submission, assigned by the analysis engine
type ID string

// State enum for the submission lifecycle
type State string

const (
	StateIdle            State = "idle"
	StatePendingApproval State = "pending_approval"
	StateReviewed        State = "reviewed"
)

// Aggregate Root: Submission
//
// A Submission is immutable once built; every lifecycle transition replaces
// the whole value so readers never observe a half-updated record.
type Submission struct {
	ID             ID                `json:"id,omitempty"`
	SessionID      string            `json:"session_id"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	Issues         []json.RawMessage `json:"issues"`
	Fixes          []json.RawMessage `json:"fixes"`
	Dashboard      json.RawMessage   `json:"dashboard,omitempty"`
	State          State             `json:"state"`
	PendingMessage string            `json:"pending_message,omitempty"`
	SnapshotURL    string            `json:"snapshot_url,omitempty"`
}

// NewPending builds a submission halted by the engine's pending verdict.
// Issues, fixes, dashboard and id are all cleared.
func NewPending(session, message string, at time.Time) *Submission {
	return &Submission{
		SessionID:      session,
		SubmittedAt:    at,
		Issues:         []json.RawMessage{},
		Fixes:          []json.RawMessage{},
		State:          StatePendingApproval,
		PendingMessage: message,
	}
}

// NewCompleted builds a submission from a completed analysis result.
// Fixes are taken from the dashboard's diff_views; when the dashboard is
// present the issue and fix sequences are padded to equal length so the
// positional pairing always holds.
func NewCompleted(session string, id ID, issues []json.RawMessage, dashboard json.RawMessage, at time.Time) *Submission {
	if issues == nil {
		issues = []json.RawMessage{}
	}
	fixes := diffViews(dashboard)

	if len(dashboard) > 0 {
		for len(fixes) < len(issues) {
			fixes = append(fixes, json.RawMessage(`{}`))
		}
		for len(issues) < len(fixes) {
			issues = append(issues, json.RawMessage(`{}`))
		}
	}

	state := StateReviewed
	if len(dashboard) == 0 {
		// nothing to review; the submission is resolved on arrival
		state = StateIdle
	}

	return &Submission{
		ID:          id,
		SessionID:   session,
		SubmittedAt: at,
		Issues:      issues,
		Fixes:       fixes,
		Dashboard:   dashboard,
		State:       state,
	}
}

// Resolved returns a copy with the dashboard cleared and the lifecycle back
// at idle. Issues and fixes stay visible for historical reference.
func (s *Submission) Resolved() *Submission {
	out := *s
	out.Dashboard = nil
	out.State = StateIdle
	out.PendingMessage = ""
	return &out
}

// Active reports whether the submission is waiting on a review decision.
func (s *Submission) Active() bool {
	return s != nil && s.ID != "" && s.State == StateReviewed
}

// diffViews extracts the diff_views array from an opaque dashboard snapshot.
// Missing or malformed fields default to an empty sequence.
func diffViews(dashboard json.RawMessage) []json.RawMessage {
	if len(dashboard) == 0 {
		return []json.RawMessage{}
	}
	var d struct {
		DiffViews []json.RawMessage `json:"diff_views"`
	}
	if err := json.Unmarshal(dashboard, &d); err != nil || d.DiffViews == nil {
		return []json.RawMessage{}
	}
	return d.DiffViews
}
