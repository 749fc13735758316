/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package googlebackend serves gemini-* models through google.golang.org/genai,
// either with a Gemini API key or on Vertex AI.
package googlebackend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/retry"
	"github.com/zswitten/starchameleon/agents/metrics"
)

// Backend implements backend.Interface for Gemini models.
type Backend struct {
	client       *genai.Client
	retryConfig  retry.Config
	genaiMetrics *metrics.GenAI
}

var _ backend.Interface = (*Backend)(nil)

// New wraps an existing genai client.
func New(client *genai.Client, opts ...Option) (*Backend, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
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

// NewWithAPIKey uses the Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string, opts ...Option) (*Backend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return New(client, opts...)
}

// NewVertex uses Vertex AI with application default credentials.
func NewVertex(ctx context.Context, projectID, region string, opts ...Option) (*Backend, error) {
	if projectID == "" || region == "" {
		return nil, errors.New("project ID and region are required for Vertex AI")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return New(client, opts...)
}

// Generate implements backend.Interface.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(req.Model), "gemini-") {
		return nil, fmt.Errorf("%w: %q is not a Gemini model", backend.ErrUnknownModel, req.Model)
	}
	return backend.Observe(ctx, b.genaiMetrics, req.Model, func(ctx context.Context) (*backend.Response, error) {
		return b.generate(ctx, req)
	})
}

func (b *Backend) generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	contents, config := buildContents(req)

	result, err := retry.Do(ctx, b.retryConfig, "gemini_generate_content", isRetryableVertexError, func() (*genai.GenerateContentResponse, error) {
		return b.client.Models.GenerateContent(ctx, req.Model, contents, config)
	})
	if err != nil {
		return nil, backend.Classify(req.Model, err, isUnavailableVertexError)
	}

	resp := &backend.Response{Text: responseText(result)}
	if result.UsageMetadata != nil {
		resp.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}
	if strings.TrimSpace(resp.Text) == "" {
		log := clog.FromContext(ctx).With("model", req.Model)
		if len(result.Candidates) > 0 {
			log = log.With("finish_reason", string(result.Candidates[0].FinishReason))
		}
		log.Warn("Gemini returned no text")
		return resp, fmt.Errorf("%s: %w", req.Model, backend.ErrEmptyResponse)
	}
	return resp, nil
}

func buildContents(req backend.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, conversation := backend.SplitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := "user"
		if m.Role == backend.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	config := &genai.GenerateContentConfig{
		Temperature:     ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return contents, config
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func ptr[T any](v T) *T {
	return &v
}
