/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package fakebackend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zswitten/starchameleon/agents/backend"
)

func req(model, content string) backend.Request {
	return backend.Request{Model: model, Messages: []backend.Message{{Role: backend.RoleUser, Content: content}}}
}

func TestScripting(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	b := New().
		On("fake-a", Text("hello")).
		On("fake-b", Fail(boom)).
		On("fake-c", Sequence(Unavailable(), Text("recovered")))

	ctx := context.Background()
	if resp, err := b.Generate(ctx, req("fake-a", "x")); err != nil || resp.Text != "hello" {
		t.Errorf("fake-a: got = (%v, %v), wanted hello", resp, err)
	}
	if _, err := b.Generate(ctx, req("fake-b", "x")); !errors.Is(err, boom) {
		t.Errorf("fake-b: got = %v, wanted boom", err)
	}
	if _, err := b.Generate(ctx, req("fake-c", "x")); !backend.IsUnavailable(err) {
		t.Errorf("fake-c first call: got = %v, wanted unavailable", err)
	}
	if resp, err := b.Generate(ctx, req("fake-c", "x")); err != nil || resp.Text != "recovered" {
		t.Errorf("fake-c second call: got = (%v, %v), wanted recovered", resp, err)
	}
	if got := len(b.Calls()); got != 4 {
		t.Errorf("Calls(): got = %d, wanted = 4", got)
	}
	if got := len(b.CallsFor("fake-c")); got != 2 {
		t.Errorf("CallsFor(fake-c): got = %d, wanted = 2", got)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	r := Match(Text("story"), Rule{Contains: "Continue", Respond: Text("continuation")})
	for prompt, want := range map[string]string{
		"Write a tale":      "story",
		"Continue this one": "continuation",
	} {
		resp, err := r(context.Background(), req("fake-a", prompt))
		if err != nil || resp.Text != want {
			t.Errorf("Match(%q): got = (%v, %v), wanted %q", prompt, resp, err, want)
		}
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := Default(ctx, req("fake-a", "Write a story"))
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	again, _ := Default(ctx, req("fake-a", "Write a story"))
	if first.Text != again.Text {
		t.Error("Default() is not deterministic for the same model and prompt")
	}
	if !strings.HasPrefix(first.Text, "<completion>") {
		t.Errorf("Default() story: got = %q, wanted <completion> wrapper", first.Text)
	}

	prompt := `<ranking></ranking> <candidate number="1">a</candidate><candidate number="2">b</candidate><candidate number="3">c</candidate>`
	ranking, err := Default(ctx, req("fake-b", prompt))
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	for _, want := range []string{"1. ", "2. ", "3. "} {
		if !strings.Contains(ranking.Text, want) {
			t.Errorf("Default() ranking %q missing %q", ranking.Text, want)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Generate(ctx, req("fake-a", "x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, wanted context.Canceled", err)
	}
}
