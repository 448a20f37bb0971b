package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/fixgate/internal/application/review"
	"github.com/bryanwahyu/fixgate/internal/domain/failures"
	domain "github.com/bryanwahyu/fixgate/internal/domain/submissions"
	"github.com/bryanwahyu/fixgate/internal/middleware"
)

type Router struct {
	sessions *review.Sessions
	failures failures.Repository
}

func NewRouter(sessions *review.Sessions, failureRepo failures.Repository, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{sessions: sessions, failures: failureRepo}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{session}", func(rt chi.Router) {
		rt.Use(requireValidSession)
		rt.Post("/submissions", r.wrap(r.handleSubmit))
		rt.Get("/submissions/current", r.wrap(r.handleCurrent))
		rt.Get("/submissions/current/summary", r.wrap(r.handleSummary))
		rt.Post("/decisions", r.wrap(r.handleDecide))
		rt.Get("/audit", r.wrap(r.handleAudit))
		rt.Get("/failures", r.wrap(r.handleFailures))
	})

	return mux
}

// requireValidSession rejects malformed session ids before any handler
// touches the session registry; an unchecked id would allocate a Service
// per unique string.
func requireValidSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := middleware.ValidateSessionID(chi.URLParam(req, "session")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domain.ErrEngineUnavailable) {
				// generic one-shot notice; prior state is untouched
				http.Error(w, "analysis engine unavailable, please retry", http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{session}/submissions
// Body: the raw input payload forwarded to the analysis engine.
// A fresh request always supersedes whatever submission came before it.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")

	var payload any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return nil
	}

	middleware.IncrementAnalyses()
	sub, err := r.sessions.Get(session).Submit(req.Context(), payload)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	if sub.State == domain.StatePendingApproval {
		middleware.IncrementPendingVerdicts()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sub)
}

// GET /v1/{session}/submissions/current
func (r *Router) handleCurrent(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")

	sub := r.sessions.Get(session).Current()
	if sub == nil {
		http.Error(w, "no submission", http.StatusNotFound)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sub)
}

// GET /v1/{session}/submissions/current/summary
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(r.sessions.Get(session).Summary())
}

// POST /v1/{session}/decisions
// Body: {"submission_id": "...", "approved": true, "approver": "...", "comment": "..."}
// A decision for a submission that is no longer active is acknowledged but
// ignored; stale clicks are expected under rapid re-submission.
func (r *Router) handleDecide(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")

	var body struct {
		SubmissionID string `json:"submission_id"`
		Approved     bool   `json:"approved"`
		Approver     string `json:"approver"`
		Comment      string `json:"comment"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return nil
	}
	if body.SubmissionID == "" {
		http.Error(w, "submission_id is required", http.StatusBadRequest)
		return nil
	}
	approver := body.Approver
	if approver == "" {
		approver = session
	}

	entry, err := r.sessions.Get(session).Decide(req.Context(),
		domain.ID(body.SubmissionID), body.Approved, approver, body.Comment)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	if entry == nil {
		w.WriteHeader(http.StatusAccepted)
		return json.NewEncoder(w).Encode(map[string]any{"status": "ignored"})
	}

	middleware.IncrementDecisions()
	return json.NewEncoder(w).Encode(entry)
}

// GET /v1/{session}/audit
func (r *Router) handleAudit(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(r.sessions.Get(session).Trail())
}

// GET /v1/{session}/failures?limit=50
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	if r.failures == nil {
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode([]any{})
	}
	list, err := r.failures.ListBySession(req.Context(), session, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
