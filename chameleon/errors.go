/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import "errors"

var (
	// ErrMalformedJudgment means a judge's answer could not be mapped to
	// exactly one candidate. The record is kept but excluded from scoring.
	ErrMalformedJudgment = errors.New("malformed judgment")

	// ErrInsufficientCandidates means a story has fewer than two candidate
	// second halves, so judging it carries no signal.
	ErrInsufficientCandidates = errors.New("insufficient candidates")

	// ErrNoStories means no model produced a usable story. It is the only
	// failure that ends a run.
	ErrNoStories = errors.New("no usable stories")

	// ErrSelfContinuation means a model was asked to continue its own story.
	ErrSelfContinuation = errors.New("model cannot continue its own story")

	// ErrEmptyOutput means a model answered with nothing usable.
	ErrEmptyOutput = errors.New("empty output")
)

// Failure kinds recorded in Result.Failures.
const (
	KindUnavailable           = "backend_unavailable"
	KindBackendError          = "backend_error"
	KindEmptyOutput           = "empty_output"
	KindMalformedJudgment     = "malformed_judgment"
	KindInsufficientCandidate = "insufficient_candidates"
)
