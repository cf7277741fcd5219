// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientInterface defines the operations flows need from a GenAI client.
// It exists so conversation logic can be tested with a mock client.
type ClientInterface interface {
	// GenerateWithMessages produces a completion for a full message array
	// (system prompt, conversation history, current user turn).
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model to use.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient initializes a GenAI client from options, falling back to the
// OPENAI_API_KEY environment variable for the key.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("GenAI client API key not set")
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	slog.Debug("GenAI client created", "model", model)
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// GenerateWithMessages produces a completion for the given message array.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	slog.Debug("GenAI GenerateWithMessages invoked", "messageCount", len(messages), "model", c.model)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("GenAI completion request failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("GenAI completion returned no choices")
		return "", fmt.Errorf("no choices returned")
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("GenAI GenerateWithMessages succeeded", "responseLength", len(content))
	return content, nil
}
