/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider names a family of models served by one SDK.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderFake      Provider = "fake"
)

// ProviderFor returns the provider serving the model, based on its name prefix.
func ProviderFor(model string) (Provider, error) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGoogle, nil
	case strings.HasPrefix(m, "gpt-"),
		strings.HasPrefix(m, "chatgpt-"),
		strings.HasPrefix(m, "o1"),
		strings.HasPrefix(m, "o3"),
		strings.HasPrefix(m, "o4"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(m, "fake-"):
		return ProviderFake, nil
	}
	return "", fmt.Errorf("%w: %s (expected claude-*, gemini-*, gpt-*, o* or fake-*)", ErrUnknownModel, model)
}

// MaxTemperature is the highest sampling temperature the provider of model
// accepts: 1 for Anthropic and for unknown models, 2 for Gemini, OpenAI and
// the fake backend.
func MaxTemperature(model string) float64 {
	p, err := ProviderFor(model)
	if err != nil {
		return 1
	}
	switch p {
	case ProviderGoogle, ProviderOpenAI, ProviderFake:
		return 2
	default:
		return 1
	}
}

// Router dispatches each request to the backend registered for the
// provider of its model.
type Router struct {
	mu       sync.RWMutex
	backends map[Provider]Interface
}

var _ Interface = (*Router)(nil)

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{backends: make(map[Provider]Interface)}
}

// Register installs the backend for a provider, replacing any previous one.
func (r *Router) Register(p Provider, b Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[p] = b
}

// Resolve returns the backend that would serve the model.
func (r *Router) Resolve(model string) (Interface, error) {
	p, err := ProviderFor(model)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[p]
	if !ok {
		return nil, fmt.Errorf("%w: no %s backend configured for %s", ErrUnknownModel, p, model)
	}
	return b, nil
}

// Generate implements Interface.
func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	b, err := r.Resolve(req.Model)
	if err != nil {
		return nil, err
	}
	return b.Generate(ctx, req)
}
