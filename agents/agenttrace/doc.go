/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records one trace per model call.

Each Trace opens an OpenTelemetry span annotated with the model, the
benchmark stage and the unit being processed, collects token usage and the
outcome, and hands the finished trace to a Tracer.

Attach the unit being worked on so traces and metrics carry it:

	ctx = agenttrace.WithUnit(ctx, agenttrace.Unit{
		Stage:    "judgment",
		PromptID: "p07",
		StoryID:  "p07/claude-sonnet-4-5",
	})

Backends start and complete traces around each call:

	trace := agenttrace.StartTrace(ctx, model)
	defer func() { trace.Complete(text, err) }()
	trace.RecordTokenUsage(in, out)

Without a tracer on the context, completed traces are logged through clog.
*/
package agenttrace
