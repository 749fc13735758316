/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package openaibackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go"

	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/backend/retry"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewWithAPIKey("test-key", srv.URL,
		WithRetryConfig(retry.Config{MaxRetries: 1, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}))
	if err != nil {
		t.Fatalf("NewWithAPIKey() error = %v", err)
	}
	return b
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	var body struct {
		Model       string           `json:"model"`
		Messages    []map[string]any `json:"messages"`
		Temperature *float64         `json:"temperature"`
	}
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "<ranking>\n1. 2\n2. 1\n</ranking>"}}],
  "usage": {"prompt_tokens": 30, "completion_tokens": 8, "total_tokens": 38}
}`))
	})

	resp, err := b.Generate(context.Background(), backend.Request{
		Model: "gpt-test",
		Messages: []backend.Message{
			{Role: backend.RoleSystem, Content: "judge"},
			{Role: backend.RoleUser, Content: "pick"},
		},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := &backend.Response{Text: "<ranking>\n1. 2\n2. 1\n</ranking>", InputTokens: 30, OutputTokens: 8}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("Generate() (-want +got):\n%s", diff)
	}
	if body.Model != "gpt-test" {
		t.Errorf("model: got = %q, wanted = gpt-test", body.Model)
	}
	if len(body.Messages) != 2 || body.Messages[0]["role"] != "system" {
		t.Errorf("messages: got = %v, wanted system then user", body.Messages)
	}
	if body.Temperature == nil || *body.Temperature != 0.7 {
		t.Errorf("temperature: got = %v, wanted = 0.7", body.Temperature)
	}
}

func TestGenerateUnavailable(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	})
	_, err := b.Generate(context.Background(), backend.Request{
		Model:    "gpt-test",
		Messages: []backend.Message{{Role: backend.RoleUser, Content: "hi"}},
	})
	if !backend.IsUnavailable(err) {
		t.Errorf("Generate() error = %v, wanted ErrUnavailable", err)
	}
}

func TestBuildParamsReasoningModel(t *testing.T) {
	t.Parallel()

	params := buildParams(backend.Request{
		Model:       "o3-mini",
		Messages:    []backend.Message{{Role: backend.RoleUser, Content: "hi"}},
		MaxTokens:   64,
		Temperature: 0.7,
	})
	if params.Temperature.Valid() {
		t.Errorf("Temperature: got = %v, wanted unset for reasoning models", params.Temperature.Value)
	}
	if got := params.MaxCompletionTokens.Value; got != 64 {
		t.Errorf("MaxCompletionTokens: got = %d, wanted = 64", got)
	}
}

func TestIsRetryableOpenAIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "429", err: &openai.Error{StatusCode: 429}, want: true},
		{name: "502", err: &openai.Error{StatusCode: 502}, want: true},
		{name: "404", err: &openai.Error{StatusCode: 404}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isRetryableOpenAIError(tt.err); got != tt.want {
				t.Errorf("isRetryableOpenAIError(): got = %v, wanted = %v", got, tt.want)
			}
		})
	}
}
