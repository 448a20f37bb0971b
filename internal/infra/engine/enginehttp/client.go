package enginehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/bryanwahyu/fixgate/internal/domain/submissions"
)

// Client talks to the external analysis engine over a single request/response
// exchange per analysis. It is stateless between invocations.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	// no request timeout: an analysis that never resolves is a documented
	// limitation, context cancellation is the only way out
	return &Client{BaseURL: baseURL, HTTP: &http.Client{}}
}

type analyzeRequest struct {
	InputData any `json:"input_data"`
}

// Analyze sends the payload and classifies the response. A transport error or
// failure status wraps domain.ErrEngineUnavailable; missing optional fields
// never fail the call.
func (c *Client) Analyze(ctx context.Context, inputData any) (domain.Outcome, error) {
	body, err := json.Marshal(analyzeRequest{InputData: inputData})
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("encoding analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("building analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Outcome{}, fmt.Errorf("%w: engine returned status %d", domain.ErrEngineUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: reading response: %v", domain.ErrEngineUnavailable, err)
	}
	return ParseResult(raw)
}

// ParseResult classifies one engine response body. The top-level
// pending/completed discrimination is mandatory; everything else is
// permissive, with absent fields defaulting to empty.
func ParseResult(body []byte) (domain.Outcome, error) {
	var decoded struct {
		Result *struct {
			Status       string            `json:"status,omitempty"`
			Message      string            `json:"message,omitempty"`
			SubmissionID string            `json:"submission_id,omitempty"`
			Issues       []json.RawMessage `json:"issues,omitempty"`
			Dashboard    json.RawMessage   `json:"dashboard,omitempty"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: decoding response: %v", domain.ErrEngineUnavailable, err)
	}

	r := decoded.Result
	if r == nil {
		return domain.Outcome{Issues: []json.RawMessage{}}, nil
	}
	if r.Status == "pending" && r.Message != "" {
		return domain.Outcome{Pending: true, Message: r.Message}, nil
	}
	issues := r.Issues
	if issues == nil {
		issues = []json.RawMessage{}
	}
	return domain.Outcome{
		ID:        domain.ID(r.SubmissionID),
		Issues:    issues,
		Dashboard: r.Dashboard,
	}, nil
}
