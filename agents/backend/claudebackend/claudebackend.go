/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package claudebackend serves claude-* models through the Anthropic Messages API.
package claudebackend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/chainguard-dev/clog"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/retry"
	"github.com/zswitten/starchameleon/agents/metrics"
)

// Backend implements backend.Interface for Claude models.
type Backend struct {
	client       anthropic.Client
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ backend.Interface = (*Backend)(nil)

// New wraps an Anthropic client. SDK-level retries should be disabled on
// the client; the backend retries transient errors itself.
func New(client anthropic.Client, opts ...Option) (*Backend, error) {
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

// NewWithAPIKey talks to the Anthropic API directly.
func NewWithAPIKey(apiKey string, opts ...Option) (*Backend, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	return New(anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)), opts...)
}

// NewVertex talks to Claude on Vertex AI with Google application default credentials.
func NewVertex(ctx context.Context, projectID, region string, opts ...Option) (*Backend, error) {
	if projectID == "" || region == "" {
		return nil, errors.New("project ID and region are required for Vertex AI")
	}
	return New(anthropic.NewClient(vertex.WithGoogleAuth(ctx, region, projectID), option.WithMaxRetries(0)), opts...)
}

// Generate implements backend.Interface.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(req.Model), "claude-") {
		return nil, fmt.Errorf("%w: %q is not a Claude model", backend.ErrUnknownModel, req.Model)
	}
	return backend.Observe(ctx, b.genaiMetrics, req.Model, func(ctx context.Context) (*backend.Response, error) {
		return b.generate(ctx, req)
	})
}

func (b *Backend) generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	params := buildParams(req)

	msg, err := retry.Do(ctx, b.retryConfig, "claude_messages", isRetryableClaudeError, func() (*anthropic.Message, error) {
		return b.client.Messages.New(ctx, params)
	})
	if err != nil {
		return nil, backend.Classify(req.Model, err, isUnavailableClaudeError)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	resp := &backend.Response{
		Text:         sb.String(),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	if strings.TrimSpace(resp.Text) == "" {
		clog.FromContext(ctx).With("model", req.Model).
			With("stop_reason", string(msg.StopReason)).
			Warn("Claude returned no text")
		return resp, fmt.Errorf("%s: %w", req.Model, backend.ErrEmptyResponse)
	}
	return resp, nil
}

func buildParams(req backend.Request) anthropic.MessageNewParams {
	system, conversation := backend.SplitSystem(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, m := range conversation {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == backend.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}
