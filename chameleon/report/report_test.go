/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package report_test

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/zswitten/starchameleon/chameleon"
	"github.com/zswitten/starchameleon/chameleon/report"
)

// rowRE matches a markdown table row with the given leading cells.
func rowRE(cells ...string) *regexp.Regexp {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = `\s*` + regexp.QuoteMeta(c) + `\s*`
	}
	return regexp.MustCompile(`(?m)^\|` + strings.Join(parts, `\|`) + `\|`)
}

func judgment(judge, trueAuthor, selected string, valid bool) chameleon.JudgmentRecord {
	return chameleon.JudgmentRecord{
		StoryID:       "p1/" + trueAuthor,
		PromptID:      "p1",
		Judge:         judge,
		TrueAuthor:    trueAuthor,
		Selected:      selected,
		Correct:       valid && selected == trueAuthor,
		RankOfCorrect: 1,
		Valid:         valid,
	}
}

func sampleResult() *chameleon.Result {
	return &chameleon.Result{
		Models:  []string{"fake-a", "fake-b", "fake-c"},
		Prompts: []chameleon.Prompt{{ID: "p1", Text: "Write."}},
		Judgments: []chameleon.JudgmentRecord{
			judgment("fake-a", "fake-a", "fake-a", true),
			judgment("fake-b", "fake-a", "fake-c", true),
			judgment("fake-c", "fake-a", "fake-a", true),
			judgment("fake-c", "fake-b", "", false),
		},
		Failures: []chameleon.Failure{
			{Stage: chameleon.StageContinuation, Kind: chameleon.KindUnavailable, Model: "fake-b", Subject: "p1/fake-c"},
			{Stage: chameleon.StageJudgment, Kind: chameleon.KindMalformedJudgment, Model: "fake-c", Subject: "p1/fake-b"},
			{Stage: chameleon.StageContinuation, Kind: chameleon.KindUnavailable, Model: "fake-a", Subject: "p1/fake-c"},
		},
		SkippedStories: []string{"p1/fake-c"},
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	got := report.Markdown(sampleResult())

	for _, want := range []*regexp.Regexp{
		rowRE("Model", "Times Fooled Others", "Correct Guesses"),
		rowRE("fake-c", "1", "1", "1", "100.0%"),
		rowRE("fake-a", "0", "1", "1", "100.0%", "2"),
		rowRE("fake-b", "0", "0", "1", "0.0%"),
		rowRE("fake-a", "1", "0", "100.0%"),
		rowRE("fake-b", "0", "0", "-"),
		rowRE("fake-b", "0", "0", "1"),
		rowRE("continuation", "backend_unavailable", "2"),
		rowRE("judgment", "malformed_judgment", "1"),
	} {
		if !want.MatchString(got) {
			t.Errorf("report does not match %s:\n%s", want, got)
		}
	}
	for _, section := range []string{"## Scoreboard", "## Self-recognition", "## Who fooled whom", "## Failures", "1 stories were not judged"} {
		if !strings.Contains(got, section) {
			t.Errorf("report missing %q", section)
		}
	}
}

func TestScoreboardOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.Scoreboard(&buf, sampleResult().Scores())
	out := buf.String()

	c, a := strings.Index(out, "| fake-c"), strings.Index(out, "| fake-a")
	if c < 0 || a < 0 || c > a {
		t.Errorf("best chameleon should come first:\n%s", out)
	}
}

func TestMarkdownWithoutFailures(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Failures, res.SkippedStories = nil, nil
	got := report.Markdown(res)
	if strings.Contains(got, "## Failures") || strings.Contains(got, "not judged") {
		t.Errorf("report has failure sections for a clean run:\n%s", got)
	}
}
