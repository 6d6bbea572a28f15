package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sahraevent/venuesearch/internal/domain"
)

const defaultTemperature = 0.2

// Completer runs single-turn chat completions.
type Completer struct {
	client      *openai.Client
	temperature float32
}

// NewCompleter creates a chat completion client.
func NewCompleter(cfg Config) *Completer {
	return &Completer{client: newClient(cfg), temperature: defaultTemperature}
}

// Complete sends a system and a user message and returns the reply text.
func (c *Completer) Complete(ctx context.Context, model, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", parseAPIError("completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("model %s: %w", model, domain.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
