package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Completion is one model response: the concatenated text plus the token
// usage the API reported for the call.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Generator produces a completion for a prompt. The production
// implementation calls the Anthropic API; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Completion, error)
}

// AnthropicGenerator calls the Anthropic Messages API
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API
func NewAnthropicGenerator(apiKey, model string, maxTokens int) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGenerator{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate sends the prompt as a single user message and concatenates the
// text blocks of the response.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (*Completion, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Completion{
		Text:         text.String(),
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}, nil
}
