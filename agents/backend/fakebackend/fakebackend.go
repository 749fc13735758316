/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package fakebackend provides a scripted in-memory backend for tests and
// dry runs that must not reach a real provider.
package fakebackend

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/zswitten/starchameleon/agents/backend"
)

// Responder produces the reply to one request.
type Responder func(ctx context.Context, req backend.Request) (*backend.Response, error)

// Backend answers each request with the responder registered for its model,
// falling back to Default. It records every request it receives.
type Backend struct {
	mu         sync.Mutex
	responders map[string]Responder
	fallback   Responder
	calls      []backend.Request
}

var _ backend.Interface = (*Backend)(nil)

// New returns a backend whose unscripted models answer with Default.
func New() *Backend {
	return &Backend{
		responders: make(map[string]Responder),
		fallback:   Default,
	}
}

// On scripts the responses of one model.
func (b *Backend) On(model string, r Responder) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responders[model] = r
	return b
}

// Otherwise replaces the responder used for unscripted models.
func (b *Backend) Otherwise(r Responder) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = r
	return b
}

// Generate implements backend.Interface.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.calls = append(b.calls, req)
	r, ok := b.responders[req.Model]
	if !ok {
		r = b.fallback
	}
	b.mu.Unlock()
	return r(ctx, req)
}

// Calls returns a copy of the requests received so far.
func (b *Backend) Calls() []backend.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.Request(nil), b.calls...)
}

// CallsFor returns the requests received for one model.
func (b *Backend) CallsFor(model string) []backend.Request {
	var out []backend.Request
	for _, c := range b.Calls() {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

// Text always answers with s.
func Text(s string) Responder {
	return func(context.Context, backend.Request) (*backend.Response, error) {
		return &backend.Response{Text: s}, nil
	}
}

// Fail always fails with err.
func Fail(err error) Responder {
	return func(context.Context, backend.Request) (*backend.Response, error) {
		return nil, err
	}
}

// Unavailable always fails with a transient error.
func Unavailable() Responder {
	return func(_ context.Context, req backend.Request) (*backend.Response, error) {
		return nil, backend.Unavailable(req.Model, fmt.Errorf("scripted outage"))
	}
}

// Sequence answers with each responder in turn, repeating the last one.
func Sequence(rs ...Responder) Responder {
	var (
		mu sync.Mutex
		i  int
	)
	return func(ctx context.Context, req backend.Request) (*backend.Response, error) {
		mu.Lock()
		r := rs[min(i, len(rs)-1)]
		i++
		mu.Unlock()
		return r(ctx, req)
	}
}

// Match dispatches on the last user message: the first rule whose substring
// it contains answers, otherwise fallback does.
func Match(fallback Responder, rules ...Rule) Responder {
	return func(ctx context.Context, req backend.Request) (*backend.Response, error) {
		last := LastUserMessage(req)
		for _, rule := range rules {
			if strings.Contains(last, rule.Contains) {
				return rule.Respond(ctx, req)
			}
		}
		return fallback(ctx, req)
	}
}

// Rule pairs a substring with the responder used when it matches.
type Rule struct {
	Contains string
	Respond  Responder
}

// LastUserMessage returns the content of the final user message.
func LastUserMessage(req backend.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == backend.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

var lorem = strings.Fields(`the lantern hummed above a quiet harbor while gulls argued over
salt and rope and the keeper counted ships that never came home until
morning folded its grey wings across the water and somebody laughed`)

// Default writes deterministic filler prose, seeded by model and prompt. When
// asked for a <ranking>, it ranks the <candidate> entries of the prompt.
func Default(_ context.Context, req backend.Request) (*backend.Response, error) {
	prompt := LastUserMessage(req)
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.Model))
	_, _ = h.Write([]byte(prompt))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))

	if strings.Contains(prompt, "<ranking>") {
		n := strings.Count(prompt, "<candidate ")
		var sb strings.Builder
		sb.WriteString("<ranking>\n")
		for i, c := range rng.Perm(n) {
			fmt.Fprintf(&sb, "%d. %d\n", i+1, c+1)
		}
		sb.WriteString("</ranking>")
		return &backend.Response{Text: sb.String(), InputTokens: int64(len(prompt) / 4), OutputTokens: int64(n * 3)}, nil
	}

	words := make([]string, 40+rng.IntN(40))
	for i := range words {
		words[i] = lorem[rng.IntN(len(lorem))]
	}
	text := strings.Join(words, " ") + "."
	return &backend.Response{
		Text:         "<completion>" + text + "</completion>",
		InputTokens:  int64(len(prompt) / 4),
		OutputTokens: int64(len(words)),
	}, nil
}
