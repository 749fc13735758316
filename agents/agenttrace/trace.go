/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "starchameleon.agents.agenttrace"

// Trace is a single model call from request to outcome.
type Trace struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Unit         Unit      `json:"unit,omitzero"`
	Output       string    `json:"output,omitempty"`
	Error        error     `json:"error,omitempty"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`

	tracer Tracer
	mu     sync.Mutex
	span   oteltrace.Span
	done   bool
}

// StartTrace opens a trace for a call to model, using the tracer on ctx.
// The returned context carries the span.
func StartTrace(ctx context.Context, model string) (context.Context, *Trace) {
	unit := GetUnit(ctx)
	tr := otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))

	attrs := append([]attribute.KeyValue{attribute.String("model", model)}, unit.SpanAttributes()...)
	ctx, span := tr.Start(ctx, "model.generate", oteltrace.WithAttributes(attrs...))

	return ctx, &Trace{
		ID:        generateTraceID(),
		Model:     model,
		Unit:      unit,
		StartTime: time.Now(),
		tracer:    TracerFromContext(ctx),
		span:      span,
	}
}

// RecordTokenUsage stores token counts on the trace and its span.
func (t *Trace) RecordTokenUsage(inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	if t.span != nil {
		t.span.SetAttributes(
			attribute.Int64("tokens.input", t.InputTokens),
			attribute.Int64("tokens.output", t.OutputTokens),
			attribute.Int64("tokens.total", t.InputTokens+t.OutputTokens),
		)
	}
}

// Complete ends the span and records the trace. Only the first call has effect.
func (t *Trace) Complete(output string, err error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.Output = output
	t.Error = err
	t.EndTime = time.Now()
	span, tracer := t.span, t.tracer
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
	if tracer != nil {
		tracer.RecordTrace(t)
	}
}

// Duration returns how long the call took, or has taken so far.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// generateTraceID returns YYYYMMDD-HHMMSS-RRRRRRRR with a random hex suffix.
func generateTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102-150405.000000")
	}
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(b))
}
