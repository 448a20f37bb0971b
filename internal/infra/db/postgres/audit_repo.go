package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/fixgate/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save appends one decision record (insert-only, decisions are never edited)
func (r *AuditRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO review_audit_log
  (id, session_id, submission_id, decided_at, status, approver, comment)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	session := stringOrDash(e.SessionID)
	submission := stringOrDash(e.SubmissionID)
	approver := stringOrDash(e.Approver)
	comment := e.Comment
	if strings.TrimSpace(comment) == "" {
		comment = domain.DefaultComment(e.Status)
	}
	decided := e.Timestamp
	if decided.IsZero() {
		decided = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, e.ID, session, submission, decided, e.Status, approver, comment)
	return err
}

// ListBySession returns decisions for a session in insertion order
func (r *AuditRepository) ListBySession(ctx context.Context, session string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, session_id, submission_id, decided_at, status, approver, comment
FROM review_audit_log
WHERE session_id=$1
ORDER BY decided_at ASC, id ASC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SubmissionID, &e.Timestamp, &e.Status, &e.Approver, &e.Comment); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
