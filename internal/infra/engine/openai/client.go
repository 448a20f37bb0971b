package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/fixgate/internal/domain/submissions"
	"github.com/bryanwahyu/fixgate/internal/infra/engine/enginehttp"
	"github.com/bryanwahyu/fixgate/internal/infra/engine/prompt"
)

const maxTokens = 2048

// Client adapts an OpenAI chat model into the analysis engine port. The
// model is instructed to emit the same {"result": ...} shape the HTTP engine
// speaks, so response classification is shared with enginehttp.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Analyze(ctx context.Context, inputData any) (domain.Outcome, error) {
	model := c.Model
	if model == "" {
		model = "o3-2025-04-16"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(inputData)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Outcome{}, fmt.Errorf("%w: empty completion", domain.ErrEngineUnavailable)
	}

	return enginehttp.ParseResult([]byte(resp.Choices[0].Message.Content))
}
