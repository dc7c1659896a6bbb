// Package openai provides a query source backed by the OpenAI Chat
// Completions API. Each query is sent as a single user message and the first
// choice's content is returned as the fetched value.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/querymesh/core"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI source adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Name                string
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	System              string
}

// Source answers queries through the OpenAI Chat Completions API.
type Source struct {
	client *openai.Client
	opts   Options
}

// NewSource creates a new OpenAI source using the official client
func NewSource(optFns ...func(o *Options)) *Source {
	client := openai.NewClient()
	return NewSourceFromClient(&client, optFns...)
}

// NewSourceFromClient creates a new OpenAI source from an existing client
func NewSourceFromClient(client *openai.Client, optFns ...func(o *Options)) *Source {
	opts := Options{
		Name:                "openai",
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Source{client: client, opts: opts}
}

// Name implements source.Source.
func (s *Source) Name() string { return s.opts.Name }

// Fetch implements source.Source.
func (s *Source) Fetch(ctx context.Context, query core.Query) (any, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	if s.opts.System != "" {
		messages = append(messages, openai.SystemMessage(s.opts.System))
	}

	messages = append(messages, openai.UserMessage(query.Text))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               s.opts.Model,
		Temperature:         openai.Float(s.opts.Temperature),
		MaxCompletionTokens: openai.Int(s.opts.MaxCompletionTokens),
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
