/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package openaibackend serves gpt-* and o-series models through the OpenAI
// Chat Completions API.
package openaibackend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/retry"
	"github.com/zswitten/starchameleon/agents/metrics"
)

// Backend implements backend.Interface for OpenAI models.
type Backend struct {
	client       openai.Client
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ backend.Interface = (*Backend)(nil)

// New wraps an OpenAI client. SDK-level retries should be disabled on the client.
func New(client openai.Client, opts ...Option) (*Backend, error) {
	b := &Backend{
		client:       client,
		retryConfig:  retry.DefaultConfig(),
		genaiMetrics: metrics.NewGenAI(metrics.MeterName),
	}
	b.genaiMetrics.SetAttributeEnricher(agenttrace.Enricher)
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return b, nil
}

// NewWithAPIKey creates a backend against api.openai.com, or baseURL when set.
func NewWithAPIKey(apiKey, baseURL string, opts ...Option) (*Backend, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return New(openai.NewClient(reqOpts...), opts...)
}

// Generate implements backend.Interface.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if p, err := backend.ProviderFor(req.Model); err != nil || p != backend.ProviderOpenAI {
		return nil, fmt.Errorf("%w: %q is not an OpenAI model", backend.ErrUnknownModel, req.Model)
	}
	return backend.Observe(ctx, b.genaiMetrics, req.Model, func(ctx context.Context) (*backend.Response, error) {
		return b.generate(ctx, req)
	})
}

func (b *Backend) generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	params := buildParams(req)

	completion, err := retry.Do(ctx, b.retryConfig, "openai_chat_completion", isRetryableOpenAIError, func() (*openai.ChatCompletion, error) {
		return b.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return nil, backend.Classify(req.Model, err, isUnavailableOpenAIError)
	}

	resp := &backend.Response{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}
	if len(completion.Choices) > 0 {
		resp.Text = completion.Choices[0].Message.Content
	}
	if strings.TrimSpace(resp.Text) == "" {
		log := clog.FromContext(ctx).With("model", req.Model)
		if len(completion.Choices) > 0 {
			log = log.With("finish_reason", completion.Choices[0].FinishReason)
		}
		log.Warn("OpenAI returned no text")
		return resp, fmt.Errorf("%s: %w", req.Model, backend.ErrEmptyResponse)
	}
	return resp, nil
}

func buildParams(req backend.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case backend.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case backend.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	}
	// Reasoning models only accept their default temperature.
	if !isReasoningModel(req.Model) {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4")
}
