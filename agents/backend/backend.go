/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxTokens caps the length of a single generation.
	DefaultMaxTokens int64 = 4096

	// DefaultTemperature is the sampling temperature used for every stage.
	DefaultTemperature = 0.7
)

// Role tags a message with the party that authored it.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call against a named model.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int64
	Temperature float64
}

// Response carries the generated text and token usage of a call.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Interface is the single capability the benchmark needs from a model
// provider: turn a list of messages into text.
type Interface interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Func adapts an ordinary function to Interface.
type Func func(ctx context.Context, req Request) (*Response, error)

// Generate implements Interface.
func (f Func) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Validate checks that the request can be sent to a provider.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	hasUser := false
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleAssistant:
		case RoleUser:
			hasUser = true
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	if !hasUser {
		return errors.New("at least one user message is required")
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative, got %d", r.MaxTokens)
	}
	if limit := MaxTemperature(r.Model); r.Temperature < 0 || r.Temperature > limit {
		return fmt.Errorf("temperature for %s must be between 0.0 and %.1f, got %f", r.Model, limit, r.Temperature)
	}
	return nil
}

// WithDefaults fills in zero-valued generation parameters.
func (r Request) WithDefaults() Request {
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// SplitSystem separates system messages from the conversation. Providers
// that take system instructions out of band (Anthropic, Gemini) use this;
// multiple system messages are joined with a blank line.
func SplitSystem(msgs []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
