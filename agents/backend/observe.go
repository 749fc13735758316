/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend

import (
	"context"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/metrics"
)

// Observe wraps a single provider call with a trace span, token metrics and
// an outcome counter. A nil m skips metrics.
func Observe(ctx context.Context, m *metrics.GenAI, model string, call func(context.Context) (*Response, error)) (*Response, error) {
	ctx, trace := agenttrace.StartTrace(ctx, model)

	resp, err := call(ctx)

	var text string
	if resp != nil {
		text = resp.Text
		if resp.InputTokens > 0 || resp.OutputTokens > 0 {
			trace.RecordTokenUsage(resp.InputTokens, resp.OutputTokens)
			if m != nil {
				m.RecordTokens(ctx, model, resp.InputTokens, resp.OutputTokens)
			}
		}
	}
	if m != nil {
		outcome := metrics.OutcomeOK
		switch {
		case IsUnavailable(err):
			outcome = metrics.OutcomeUnavailable
		case err != nil:
			outcome = metrics.OutcomeError
		}
		m.RecordCall(ctx, model, outcome)
	}
	trace.Complete(text, err)
	return resp, err
}
