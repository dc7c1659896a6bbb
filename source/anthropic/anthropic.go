// Package anthropic provides a query source backed by the Anthropic Claude
// Messages API. Each query is sent as a single user message and the
// concatenated text blocks of the reply are returned as the fetched value.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/querymesh/core"
)

// Options configures the Anthropic source adapter (source name, model id,
// temperature, max tokens, system prompt, API key). Extend via functional
// options to preserve stability.
type Options struct {
	Name        string
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	System      string
	APIKey      string
}

// Source answers queries through the Anthropic Messages API.
type Source struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Name:        "anthropic",
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewSource creates a new Anthropic source using the official client
func NewSource(optFns ...func(o *Options)) *Source {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Source{
		client: &client,
		opts:   opts,
	}
}

// NewSourceFromClient creates a new Anthropic source from an existing client
func NewSourceFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Source {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Source{
		client: client,
		opts:   opts,
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return s.opts.Name }

// Fetch implements source.Source. The query text becomes a single user
// message; the reply's text blocks are concatenated into the result.
func (s *Source) Fetch(ctx context.Context, query core.Query) (any, error) {
	params := anthropic.MessageNewParams{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: anthropic.Float(s.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query.Text)),
		},
	}

	if s.opts.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: s.opts.System},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder

	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("no text content returned")
	}

	return text.String(), nil
}
