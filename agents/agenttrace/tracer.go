/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// Tracer receives completed traces.
type Tracer interface {
	RecordTrace(trace *Trace)
}

// ByCode adapts a callback to Tracer.
type ByCode func(trace *Trace)

// RecordTrace implements Tracer.
func (f ByCode) RecordTrace(trace *Trace) { f(trace) }

type tracerKey struct{}

// WithTracer returns a context carrying the tracer.
func WithTracer(ctx context.Context, tracer Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, tracer)
}

// TracerFromContext returns the context's tracer, or a clog-backed default.
func TracerFromContext(ctx context.Context) Tracer {
	if tracer, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return tracer
	}
	return NewDefaultTracer(ctx)
}

// NewDefaultTracer logs each completed trace at debug level.
func NewDefaultTracer(ctx context.Context) Tracer {
	logger := clog.FromContext(ctx)
	return ByCode(func(trace *Trace) {
		l := logger.With(
			"trace_id", trace.ID,
			"model", trace.Model,
			"stage", trace.Unit.Stage,
			"duration_ms", trace.Duration().Milliseconds(),
			"tokens_in", trace.InputTokens,
			"tokens_out", trace.OutputTokens,
		)
		if trace.Error != nil {
			l.Warn("Model call failed", "error", trace.Error)
			return
		}
		l.Debug("Model call completed", "output_chars", len(trace.Output))
	})
}
