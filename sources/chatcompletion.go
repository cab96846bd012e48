package sources

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/oauth2"
)

// ChatCompletionOperation wraps an OpenAI-compatible client behind a single
// method matching the op signature rivulet.SelectParallel /
// ForEachParallel expect: func(context.Context, T) (R, error). It is
// grounded on Freitascorp-devopsclaw's combined use of
// github.com/openai/openai-go/v3 and golang.org/x/oauth2 for authenticated
// model calls, generalized here into a per-item pipeline operation so a
// prompt stream can run through rivulet's full retry/breaker/rate-limit
// overlay set (a single flaky or throttled completion call is exactly the
// kind of per-item failure those overlays exist to absorb).
type ChatCompletionOperation struct {
	client openai.Client
	model  string
}

// NewChatCompletionOperation builds a client authenticated via ts (an
// oauth2.TokenSource, e.g. a static token or a refreshing credential flow)
// against baseURL, targeting model for every call.
func NewChatCompletionOperation(ctx context.Context, baseURL, model string, ts oauth2.TokenSource) (*ChatCompletionOperation, error) {
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("sources: obtain oauth2 token: %w", err)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(tok.AccessToken),
	)

	return &ChatCompletionOperation{client: client, model: model}, nil
}

// Complete sends prompt as a single user message and returns the first
// choice's text, matching the Op shape rivulet's operators call per item.
func (c *ChatCompletionOperation) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("sources: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("sources: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
