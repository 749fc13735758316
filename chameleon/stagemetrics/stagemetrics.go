/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package stagemetrics exports benchmark progress as Prometheus counters.
package stagemetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/chameleon"
)

var (
	callCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchameleon_backend_calls_total",
			Help: "Backend calls made by the benchmark, by stage and outcome",
		},
		[]string{"run", "stage", "model", "outcome"},
	)

	missingTagCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchameleon_missing_completion_tags_total",
			Help: "Continuations returned without <completion> tags",
		},
		[]string{"run", "model"},
	)

	judgmentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchameleon_judgments_total",
			Help: "Judgment records by judge and verdict",
		},
		[]string{"run", "judge", "verdict"},
	)

	foolingCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchameleon_times_fooled_others_total",
			Help: "Times another judge picked a model's continuation as the original",
		},
		[]string{"run", "model"},
	)

	skippedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchameleon_skipped_stories_total",
			Help: "Stories not judged because they had fewer than two candidates",
		},
		[]string{"run"},
	)
)

// Outcomes of a backend call.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Verdicts of a judgment record.
const (
	VerdictCorrect = "correct"
	VerdictFooled  = "fooled"
	VerdictInvalid = "invalid"
)

// Observer implements chameleon.Observer with Prometheus counters labeled
// by run.
type Observer struct {
	run     string
	skipped prometheus.Counter
}

var _ chameleon.Observer = (*Observer)(nil)

// NewObserver returns an observer whose series carry the given run label.
func NewObserver(run string) *Observer {
	return &Observer{
		run:     run,
		skipped: skippedCounter.With(prometheus.Labels{"run": run}),
	}
}

// Call implements chameleon.Observer.
func (o *Observer) Call(stage chameleon.Stage, model string, err error) {
	outcome := OutcomeOK
	switch {
	case backend.IsUnavailable(err):
		outcome = OutcomeUnavailable
	case err != nil:
		outcome = OutcomeError
	}
	callCounter.With(prometheus.Labels{
		"run":     o.run,
		"stage":   string(stage),
		"model":   model,
		"outcome": outcome,
	}).Inc()
}

// MissingTag implements chameleon.Observer.
func (o *Observer) MissingTag(model string) {
	missingTagCounter.With(prometheus.Labels{"run": o.run, "model": model}).Inc()
}

// Judgment implements chameleon.Observer.
func (o *Observer) Judgment(rec chameleon.JudgmentRecord) {
	verdict := VerdictInvalid
	switch {
	case !rec.Valid:
	case rec.Correct:
		verdict = VerdictCorrect
	default:
		verdict = VerdictFooled
		if rec.Selected != rec.Judge {
			foolingCounter.With(prometheus.Labels{"run": o.run, "model": rec.Selected}).Inc()
		}
	}
	judgmentCounter.With(prometheus.Labels{"run": o.run, "judge": rec.Judge, "verdict": verdict}).Inc()
}

// Skipped implements chameleon.Observer.
func (o *Observer) Skipped(string) {
	o.skipped.Inc()
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
