package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/careercompass/compass/internal/store"
)

// Compile-time interface check
var _ Summarizer = (*OpenAI)(nil)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI summarizes entries with a chat completion model. On model failure
// it degrades to the Fallback rendering rather than surfacing the error to
// the caller.
type OpenAI struct {
	chat     ChatService
	model    string
	fallback Fallback
}

// NewOpenAI creates a new OpenAI summarizer.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		chat:  client.Chat.Completions,
		model: model,
	}
}

// Summarize asks the model for a summary of the entry window.
func (o *OpenAI) Summarize(ctx context.Context, entries []store.Record, start, end string) (string, error) {
	if len(entries) == 0 {
		return o.fallback.Summarize(ctx, entries, start, end)
	}

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a concise career assistant. Summarize work accomplishments factually, without embellishment."),
			openai.UserMessage(BuildPrompt(entries, start, end)),
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		slog.Warn("summary model call failed, falling back to plain list", "error", err)
		return o.fallback.Summarize(ctx, entries, start, end)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("summarize: model returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the chat model name
func (o *OpenAI) ModelName() string {
	return o.model
}
