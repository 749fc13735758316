/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Unit identifies the piece of benchmark work a model call belongs to.
type Unit struct {
	Stage    string `json:"stage,omitempty"`     // "completion", "continuation" or "judgment"
	PromptID string `json:"prompt_id,omitempty"` // Prompt the unit derives from
	StoryID  string `json:"story_id,omitempty"`  // Story being continued or judged (optional)
	Subject  string `json:"subject,omitempty"`   // Model the unit is about, e.g. the judge (optional)
}

// SpanAttributes returns every populated field as span attributes.
func (u Unit) SpanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if u.Stage != "" {
		attrs = append(attrs, attribute.String("stage", u.Stage))
	}
	if u.PromptID != "" {
		attrs = append(attrs, attribute.String("prompt_id", u.PromptID))
	}
	if u.StoryID != "" {
		attrs = append(attrs, attribute.String("story_id", u.StoryID))
	}
	if u.Subject != "" {
		attrs = append(attrs, attribute.String("subject", u.Subject))
	}
	return attrs
}

// EnrichAttributes adds the unit's bounded labels to metric attributes.
//
// Prompt and story identifiers stay out of metrics; they only appear on spans.
func (u Unit) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+1)
	copy(attrs, baseAttrs)
	if u.Stage != "" {
		attrs = append(attrs, attribute.String("stage", u.Stage))
	}
	return attrs
}

type unitKey struct{}

// WithUnit attaches the unit to the context.
func WithUnit(ctx context.Context, u Unit) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

// GetUnit returns the unit attached to the context, or the zero Unit.
func GetUnit(ctx context.Context) Unit {
	if u, ok := ctx.Value(unitKey{}).(Unit); ok {
		return u
	}
	return Unit{}
}

// Enricher is a metrics.AttributeEnricher that reads the unit from ctx.
func Enricher(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	return GetUnit(ctx).EnrichAttributes(baseAttrs)
}
