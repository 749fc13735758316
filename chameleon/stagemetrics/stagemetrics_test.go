/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package stagemetrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/chameleon"
)

func TestObserver(t *testing.T) {
	t.Parallel()

	const run = "test-observer"
	o := NewObserver(run)

	o.Call(chameleon.StageCompletion, "fake-a", nil)
	o.Call(chameleon.StageCompletion, "fake-a", nil)
	o.Call(chameleon.StageContinuation, "fake-b", backend.Unavailable("fake-b", errors.New("503")))
	o.Call(chameleon.StageJudgment, "fake-b", errors.New("400"))
	o.MissingTag("fake-b")
	o.Skipped("p1/fake-a")
	o.Judgment(chameleon.JudgmentRecord{Judge: "fake-a", TrueAuthor: "fake-a", Selected: "fake-a", Correct: true, Valid: true})
	o.Judgment(chameleon.JudgmentRecord{Judge: "fake-b", TrueAuthor: "fake-a", Selected: "fake-c", Valid: true})
	o.Judgment(chameleon.JudgmentRecord{Judge: "fake-c", TrueAuthor: "fake-a", Selected: "fake-c", Valid: true})
	o.Judgment(chameleon.JudgmentRecord{Judge: "fake-c", TrueAuthor: "fake-a"})

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{name: "completion ok", c: callCounter.With(prometheus.Labels{"run": run, "stage": "completion", "model": "fake-a", "outcome": OutcomeOK}), want: 2},
		{name: "continuation unavailable", c: callCounter.With(prometheus.Labels{"run": run, "stage": "continuation", "model": "fake-b", "outcome": OutcomeUnavailable}), want: 1},
		{name: "judgment error", c: callCounter.With(prometheus.Labels{"run": run, "stage": "judgment", "model": "fake-b", "outcome": OutcomeError}), want: 1},
		{name: "missing tags", c: missingTagCounter.With(prometheus.Labels{"run": run, "model": "fake-b"}), want: 1},
		{name: "skipped", c: skippedCounter.With(prometheus.Labels{"run": run}), want: 1},
		{name: "correct", c: judgmentCounter.With(prometheus.Labels{"run": run, "judge": "fake-a", "verdict": VerdictCorrect}), want: 1},
		{name: "fooled", c: judgmentCounter.With(prometheus.Labels{"run": run, "judge": "fake-b", "verdict": VerdictFooled}), want: 1},
		{name: "invalid", c: judgmentCounter.With(prometheus.Labels{"run": run, "judge": "fake-c", "verdict": VerdictInvalid}), want: 1},
		// fake-c picking its own imitation does not count as fooling others.
		{name: "fooled others", c: foolingCounter.With(prometheus.Labels{"run": run, "model": "fake-c"}), want: 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s: got = %v, wanted = %v", tt.name, got, tt.want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	NewObserver("test-textfile").Skipped("p1/fake-a")

	path := filepath.Join(t.TempDir(), "starchameleon.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(b), `starchameleon_skipped_stories_total{run="test-textfile"} 1`) {
		t.Errorf("textfile missing skipped counter:\n%s", b)
	}

	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("WriteTextfile(missing dir) error = nil, wanted error")
	}
}
