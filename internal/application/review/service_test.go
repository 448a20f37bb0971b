package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/fixgate/internal/domain/audit"
	"github.com/bryanwahyu/fixgate/internal/domain/submissions"
)

// fakeEngine replays queued outcomes in order.
type fakeEngine struct {
	outcomes []submissions.Outcome
	errs     []error
	calls    int
}

func (f *fakeEngine) Analyze(ctx context.Context, inputData any) (submissions.Outcome, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return submissions.Outcome{}, f.errs[i]
	}
	if i < len(f.outcomes) {
		return f.outcomes[i], nil
	}
	return submissions.Outcome{}, fmt.Errorf("unexpected call %d", i)
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// captureRepo records write-throughs and can be told to fail.
type captureRepo struct {
	saved []audit.Entry
	fail  bool
}

func (r *captureRepo) Save(ctx context.Context, e *audit.Entry) error {
	if r.fail {
		return errors.New("db down")
	}
	r.saved = append(r.saved, *e)
	return nil
}

func (r *captureRepo) ListBySession(ctx context.Context, session string, limit int) ([]*audit.Entry, error) {
	return nil, nil
}

func newService(eng *fakeEngine) *Service {
	return &Service{
		SessionID: "user1",
		Engine:    eng,
		Clock:     &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func completedOutcome(id string) submissions.Outcome {
	return submissions.Outcome{
		ID:        submissions.ID(id),
		Issues:    []json.RawMessage{json.RawMessage(`{"type":"syntax_error"}`)},
		Dashboard: json.RawMessage(`{"diff_views":[{"before":"a","after":"b"}]}`),
	}
}

// Scenario A: pending verdict halts the workflow with the engine's message.
func TestSubmitPendingVerdict(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{
		{Pending: true, Message: "Needs human sign-off"},
	}})

	sub, err := svc.Submit(context.Background(), map[string]string{"html": "<div>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.State != submissions.StatePendingApproval {
		t.Fatalf("state = %s, want pending_approval", sub.State)
	}
	if sub.PendingMessage != "Needs human sign-off" {
		t.Fatalf("pending message = %q", sub.PendingMessage)
	}
	if len(sub.Issues) != 0 || len(sub.Fixes) != 0 || sub.Dashboard != nil || sub.ID != "" {
		t.Fatalf("pending submission must carry no analysis results")
	}
	if svc.Current() != sub {
		t.Fatalf("current submission not replaced")
	}
}

// Scenario B: completed result exposes issues and fixes for review.
func TestSubmitCompletedResult(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})

	sub, err := svc.Submit(context.Background(), "payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.ID != "S1" {
		t.Fatalf("id = %q, want S1", sub.ID)
	}
	if sub.State != submissions.StateReviewed {
		t.Fatalf("state = %s, want reviewed", sub.State)
	}
	if len(sub.Issues) != 1 || len(sub.Fixes) != 1 {
		t.Fatalf("issues/fixes = %d/%d, want 1/1", len(sub.Issues), len(sub.Fixes))
	}
}

// Scenario C: a decision appends an audit entry and ends the review phase.
func TestDecideApprovesActiveSubmission(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	repo := &captureRepo{}
	svc.AuditRepo = repo

	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, err := svc.Decide(context.Background(), "S1", true, "user1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected an audit entry")
	}
	if entry.Status != audit.StatusApproved {
		t.Fatalf("status = %s, want approved", entry.Status)
	}
	if entry.Approver != "user1" {
		t.Fatalf("approver = %q, want user1", entry.Approver)
	}
	if entry.Comment != "Approved by user" {
		t.Fatalf("comment = %q, want default template", entry.Comment)
	}

	cur := svc.Current()
	if cur.Dashboard != nil {
		t.Fatalf("dashboard should be cleared after decision")
	}
	if cur.State != submissions.StateIdle {
		t.Fatalf("state = %s, want idle", cur.State)
	}
	if len(cur.Issues) != 1 || len(cur.Fixes) != 1 {
		t.Fatalf("issues/fixes should stay visible after decision")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("write-through saved %d entries, want 1", len(repo.saved))
	}
}

func TestDecideRejectUsesTemplatedComment(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, err := svc.Decide(context.Background(), "S1", false, "user1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Status != audit.StatusRejected {
		t.Fatalf("status = %s, want rejected", entry.Status)
	}
	if entry.Comment != "Rejected by user" {
		t.Fatalf("comment = %q", entry.Comment)
	}
}

func TestDecideCustomCommentReplacesDefault(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, _ := svc.Decide(context.Background(), "S1", true, "user1", "ship it")
	if entry.Comment != "ship it" {
		t.Fatalf("comment = %q, want caller's text", entry.Comment)
	}
}

// Scenario D: decisions with no active submission are silent no-ops.
func TestDecideWithoutActiveSubmission(t *testing.T) {
	svc := newService(&fakeEngine{})
	repo := &captureRepo{}
	svc.AuditRepo = repo

	entry, err := svc.Decide(context.Background(), "S1", false, "user1", "")
	if err != nil {
		t.Fatalf("stale decision must not error: %v", err)
	}
	if entry != nil {
		t.Fatalf("stale decision must not produce an entry")
	}
	if len(svc.Trail()) != 0 || len(repo.saved) != 0 {
		t.Fatalf("stale decision must not touch the trail")
	}
}

// Idempotence: the second decision for the same id is a no-op.
func TestDecideTwiceAppendsOnce(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first, _ := svc.Decide(context.Background(), "S1", true, "user1", "")
	second, _ := svc.Decide(context.Background(), "S1", true, "user1", "")

	if first == nil {
		t.Fatalf("first decision should append")
	}
	if second != nil {
		t.Fatalf("second decision should be a no-op")
	}
	if n := len(svc.Trail()); n != 1 {
		t.Fatalf("trail has %d entries, want 1", n)
	}
}

func TestDecideMismatchedIDIsNoOp(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, err := svc.Decide(context.Background(), "S2", true, "user1", "")
	if err != nil || entry != nil {
		t.Fatalf("decision for a different id must be a no-op, got entry=%v err=%v", entry, err)
	}
	if !svc.Current().Active() {
		t.Fatalf("submission must stay active after mismatched decision")
	}
}

// Scenario E: transport failure leaves the prior submission untouched.
func TestSubmitEngineFailureKeepsState(t *testing.T) {
	eng := &fakeEngine{
		outcomes: []submissions.Outcome{completedOutcome("S1"), {}},
		errs:     []error{nil, submissions.ErrEngineUnavailable},
	}
	svc := newService(eng)

	before, err := svc.Submit(context.Background(), "payload")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Submit(context.Background(), "payload2")
	if !errors.Is(err, submissions.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
	if svc.Current() != before {
		t.Fatalf("engine failure must not replace the submission")
	}
}

// Trail ordering: N decisions produce N entries in issue order with
// non-decreasing timestamps.
func TestTrailOrdering(t *testing.T) {
	const n = 5
	outcomes := make([]submissions.Outcome, n)
	for i := range outcomes {
		outcomes[i] = completedOutcome(fmt.Sprintf("S%d", i))
	}
	svc := newService(&fakeEngine{outcomes: outcomes})

	for i := 0; i < n; i++ {
		if _, err := svc.Submit(context.Background(), "payload"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		approved := i%2 == 0
		if _, err := svc.Decide(context.Background(), submissions.ID(fmt.Sprintf("S%d", i)), approved, "user1", ""); err != nil {
			t.Fatalf("decide %d: %v", i, err)
		}
	}

	trail := svc.Trail()
	if len(trail) != n {
		t.Fatalf("trail has %d entries, want %d", len(trail), n)
	}
	for i, e := range trail {
		if e.SubmissionID != fmt.Sprintf("S%d", i) {
			t.Fatalf("entry %d is for %s, order broken", i, e.SubmissionID)
		}
		if i > 0 && e.Timestamp.Before(trail[i-1].Timestamp) {
			t.Fatalf("timestamps decrease at entry %d", i)
		}
	}
}

// The audit endpoint reads the trail while decisions are still being
// recorded; snapshots taken mid-flight must always be well-formed prefixes.
func TestTrailReadableWhileDeciding(t *testing.T) {
	const n = 25
	outcomes := make([]submissions.Outcome, n)
	for i := range outcomes {
		outcomes[i] = completedOutcome(fmt.Sprintf("S%d", i))
	}
	svc := newService(&fakeEngine{outcomes: outcomes})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for i, e := range svc.Trail() {
				if e.SubmissionID != fmt.Sprintf("S%d", i) {
					t.Errorf("snapshot entry %d is for %s, order broken", i, e.SubmissionID)
					return
				}
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < n; i++ {
		if _, err := svc.Submit(ctx, "payload"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if _, err := svc.Decide(ctx, submissions.ID(fmt.Sprintf("S%d", i)), true, "user1", ""); err != nil {
			t.Fatalf("decide %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()

	if got := len(svc.Trail()); got != n {
		t.Fatalf("trail has %d entries, want %d", got, n)
	}
}

// Write-through failures are absorbed; the in-memory trail is authoritative
// for the session.
func TestDecideSurvivesWriteThroughFailure(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})
	svc.AuditRepo = &captureRepo{fail: true}

	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	entry, err := svc.Decide(context.Background(), "S1", true, "user1", "")
	if err != nil || entry == nil {
		t.Fatalf("decide must not fail on durable store errors, got entry=%v err=%v", entry, err)
	}
	if len(svc.Trail()) != 1 {
		t.Fatalf("in-memory trail should still record the decision")
	}
}

// A new analysis request supersedes whatever state preceded it.
func TestResubmissionReplacesWholesale(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{
		{Pending: true, Message: "wait"},
		completedOutcome("S2"),
		{Pending: true, Message: "wait again"},
	}})

	ctx := context.Background()
	if _, err := svc.Submit(ctx, "p1"); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	sub2, err := svc.Submit(ctx, "p2")
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if sub2.State != submissions.StateReviewed || sub2.PendingMessage != "" {
		t.Fatalf("pending state leaked into the new submission")
	}
	sub3, err := svc.Submit(ctx, "p3")
	if err != nil {
		t.Fatalf("submit 3: %v", err)
	}
	if sub3.State != submissions.StatePendingApproval || sub3.ID != "" || len(sub3.Issues) != 0 {
		t.Fatalf("reviewed state leaked into the new submission")
	}
}

func TestSummary(t *testing.T) {
	svc := newService(&fakeEngine{outcomes: []submissions.Outcome{completedOutcome("S1")}})

	if got := svc.Summary()["state"]; got != "idle" {
		t.Fatalf("summary state = %v before any submission, want idle", got)
	}

	if _, err := svc.Submit(context.Background(), "payload"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s := svc.Summary()
	if s["state"] != "reviewed" || s["issue_count"] != 1 || s["fix_count"] != 1 || s["submission_id"] != "S1" {
		t.Fatalf("unexpected summary: %v", s)
	}
}
