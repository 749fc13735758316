/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/retry"
	"github.com/zswitten/starchameleon/agents/metrics"
)

func userRequest(model string) backend.Request {
	return backend.Request{Model: model, Messages: []backend.Message{{Role: backend.RoleUser, Content: "hi"}}}
}

func withTemperature(req backend.Request, temp float64) backend.Request {
	req.Temperature = temp
	return req
}

func TestMaxTemperature(t *testing.T) {
	t.Parallel()

	for model, want := range map[string]float64{
		"claude-3-opus-20240229": 1,
		"gemini-2.5-pro":         2,
		"gpt-4o":                 2,
		"o3-mini":                2,
		"fake-a":                 2,
		"mystery":                1,
	} {
		if got := backend.MaxTemperature(model); got != want {
			t.Errorf("MaxTemperature(%q): got = %v, wanted = %v", model, got, want)
		}
	}
}

func TestProviderFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model   string
		want    backend.Provider
		wantErr bool
	}{
		{model: "claude-sonnet-4-5", want: backend.ProviderAnthropic},
		{model: "Claude-3-opus", want: backend.ProviderAnthropic},
		{model: "gemini-2.5-pro", want: backend.ProviderGoogle},
		{model: "gpt-4o", want: backend.ProviderOpenAI},
		{model: "o3-mini", want: backend.ProviderOpenAI},
		{model: "fake-a", want: backend.ProviderFake},
		{model: "llama-3", wantErr: true},
		{model: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			got, err := backend.ProviderFor(tt.model)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ProviderFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, backend.ErrUnknownModel) {
				t.Errorf("ProviderFor() error = %v, wanted ErrUnknownModel", err)
			}
			if got != tt.want {
				t.Errorf("ProviderFor(): got = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	t.Parallel()

	r := backend.NewRouter()
	r.Register(backend.ProviderFake, backend.Func(func(_ context.Context, req backend.Request) (*backend.Response, error) {
		return &backend.Response{Text: "from " + req.Model}, nil
	}))

	resp, err := r.Generate(context.Background(), userRequest("fake-a"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "from fake-a" {
		t.Errorf("Generate(): got = %q, wanted = %q", resp.Text, "from fake-a")
	}

	if _, err := r.Generate(context.Background(), userRequest("claude-x")); !errors.Is(err, backend.ErrUnknownModel) {
		t.Errorf("Generate(unregistered provider) error = %v, wanted ErrUnknownModel", err)
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     backend.Request
		wantErr bool
	}{
		{name: "valid", req: userRequest("m")},
		{name: "no model", req: backend.Request{Messages: []backend.Message{{Role: backend.RoleUser, Content: "x"}}}, wantErr: true},
		{name: "no messages", req: backend.Request{Model: "m"}, wantErr: true},
		{name: "system only", req: backend.Request{Model: "m", Messages: []backend.Message{{Role: backend.RoleSystem, Content: "x"}}}, wantErr: true},
		{name: "bad role", req: backend.Request{Model: "m", Messages: []backend.Message{{Role: "tool", Content: "x"}}}, wantErr: true},
		{name: "hot", req: backend.Request{Model: "m", Messages: []backend.Message{{Role: backend.RoleUser}}, Temperature: 1.5}, wantErr: true},
		{name: "hot claude", req: withTemperature(userRequest("claude-3-haiku-20240307"), 1.5), wantErr: true},
		{name: "warm gemini", req: withTemperature(userRequest("gemini-2.5-pro"), 1.5)},
		{name: "warm gpt", req: withTemperature(userRequest("gpt-4o"), 2)},
		{name: "too hot gpt", req: withTemperature(userRequest("gpt-4o"), 2.1), wantErr: true},
		{name: "negative", req: withTemperature(userRequest("fake-a"), -0.5), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()

	if got := userRequest("m").WithDefaults().MaxTokens; got != backend.DefaultMaxTokens {
		t.Errorf("MaxTokens: got = %d, wanted = %d", got, backend.DefaultMaxTokens)
	}
	req := userRequest("m")
	req.MaxTokens = 10
	if got := req.WithDefaults().MaxTokens; got != 10 {
		t.Errorf("MaxTokens: got = %d, wanted = 10", got)
	}
}

func TestSplitSystem(t *testing.T) {
	t.Parallel()

	system, rest := backend.SplitSystem([]backend.Message{
		{Role: backend.RoleSystem, Content: "a"},
		{Role: backend.RoleUser, Content: "u"},
		{Role: backend.RoleSystem, Content: "b"},
		{Role: backend.RoleAssistant, Content: "x"},
	})
	if system != "a\n\nb" {
		t.Errorf("system: got = %q, wanted = %q", system, "a\n\nb")
	}
	want := []backend.Message{{Role: backend.RoleUser, Content: "u"}, {Role: backend.RoleAssistant, Content: "x"}}
	if diff := cmp.Diff(want, rest); diff != "" {
		t.Errorf("rest (-want +got):\n%s", diff)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	transient := errors.New("429")
	tests := []struct {
		name            string
		err             error
		wantNil         bool
		wantUnavailable bool
		wantIs          error
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "cancelled passes through", err: fmt.Errorf("call: %w", context.Canceled), wantIs: context.Canceled},
		{name: "transient", err: transient, wantUnavailable: true, wantIs: transient},
		{name: "exhausted", err: &retry.ExhaustedError{Operation: "op", Attempts: 3, Err: errors.New("x")}, wantUnavailable: true},
		{name: "network", err: timeoutErr{}, wantUnavailable: true},
		{name: "permanent", err: errors.New("400 bad request")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := backend.Classify("m", tt.err, func(err error) bool { return errors.Is(err, transient) })
			if (got == nil) != tt.wantNil {
				t.Fatalf("Classify() = %v, wantNil %v", got, tt.wantNil)
			}
			if backend.IsUnavailable(got) != tt.wantUnavailable {
				t.Errorf("IsUnavailable(%v): got = %v, wanted = %v", got, !tt.wantUnavailable, tt.wantUnavailable)
			}
			if tt.wantIs != nil && !errors.Is(got, tt.wantIs) {
				t.Errorf("Classify() = %v, wanted wrapping %v", got, tt.wantIs)
			}
		})
	}
}

func TestObserve(t *testing.T) {
	t.Parallel()

	var traces []*agenttrace.Trace
	ctx := agenttrace.WithTracer(context.Background(), agenttrace.ByCode(func(tr *agenttrace.Trace) {
		traces = append(traces, tr)
	}))
	ctx = agenttrace.WithUnit(ctx, agenttrace.Unit{Stage: "completion"})

	resp, err := backend.Observe(ctx, metrics.NewGenAI("test"), "fake-a", func(context.Context) (*backend.Response, error) {
		return &backend.Response{Text: "ok", InputTokens: 3, OutputTokens: 4}, nil
	})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("Observe() = (%v, %v), wanted ok", resp, err)
	}
	if len(traces) != 1 {
		t.Fatalf("traces: got = %d, wanted = 1", len(traces))
	}
	if tr := traces[0]; tr.InputTokens != 3 || tr.OutputTokens != 4 || tr.Unit.Stage != "completion" {
		t.Errorf("trace: got = %+v", tr)
	}
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	inner := backend.Func(func(context.Context, backend.Request) (*backend.Response, error) {
		calls.Add(1)
		return &backend.Response{Text: "ok"}, nil
	})

	if _, limited := backend.WithRateLimit(inner, 0).(*backend.RateLimited); limited {
		t.Error("WithRateLimit(0) should return the inner backend")
	}

	// One request per minute: the first call uses the burst, the second must wait.
	limited := backend.WithRateLimit(inner, 1)
	if _, err := limited.Generate(context.Background(), userRequest("m")); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := limited.Generate(ctx, userRequest("m")); err == nil {
		t.Error("second Generate() error = nil, wanted rate limiter wait failure")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("inner calls: got = %d, wanted = 1", got)
	}
}
