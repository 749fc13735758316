/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestGenAIEnricherApplied(t *testing.T) {
	t.Parallel()

	m := NewGenAI("starchameleon.test")

	var calls int
	m.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		calls++
		if len(base) == 0 || base[0].Key != "model" {
			t.Errorf("enricher base attributes: got = %v, wanted model first", base)
		}
		return append(base, attribute.String("stage", "completion"))
	})

	ctx := context.Background()
	m.RecordTokens(ctx, "claude-a", 10, 20)
	m.RecordCall(ctx, "claude-a", OutcomeOK)
	m.RecordCall(ctx, "claude-a", OutcomeUnavailable, attribute.Int("attempt", 2))

	if calls != 3 {
		t.Errorf("enricher calls: got = %d, wanted = 3", calls)
	}
}

func TestGenAIWithoutEnricher(t *testing.T) {
	t.Parallel()

	// The global meter provider is a no-op in tests; recording must not panic.
	m := NewGenAI(MeterName)
	m.RecordTokens(context.Background(), "gemini-b", 1, 1)
	m.RecordCall(context.Background(), "gemini-b", OutcomeError)
}
