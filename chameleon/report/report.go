/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders benchmark results as markdown tables.
package report

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/zswitten/starchameleon/chameleon"
)

// Markdown renders the scoreboard, the self-recognition table, the
// judge-by-author fooling matrix and the failure summary.
func Markdown(res *chameleon.Result) string {
	var buf bytes.Buffer
	scores := res.Scores()

	fmt.Fprintf(&buf, "# Star Chameleon results\n\n")
	fmt.Fprintf(&buf, "%d models, %d prompts, %d stories, %d continuations, %d judgments\n\n",
		len(res.Models), len(res.Prompts), len(res.Stories), len(res.Continuations), len(res.Judgments))

	buf.WriteString("## Scoreboard\n\n")
	Scoreboard(&buf, scores)

	buf.WriteString("\n## Self-recognition\n\n")
	SelfRecognition(&buf, scores)

	buf.WriteString("\n## Who fooled whom\n\n")
	buf.WriteString("Rows are judges, columns the model whose continuation they picked over the original.\n\n")
	FoolingMatrix(&buf, res.Models, res.Judgments)

	if len(res.Failures) > 0 {
		buf.WriteString("\n## Failures\n\n")
		Failures(&buf, res.Failures)
	}
	if len(res.SkippedStories) > 0 {
		fmt.Fprintf(&buf, "\n%d stories were not judged for lack of candidates.\n", len(res.SkippedStories))
	}
	return buf.String()
}

// Scoreboard writes one row per model, best chameleon first.
func Scoreboard(w io.Writer, scores []chameleon.ModelScore) {
	ordered := slices.Clone(scores)
	slices.SortStableFunc(ordered, func(a, b chameleon.ModelScore) int {
		return cmp.Or(
			cmp.Compare(b.TimesFooledOthers, a.TimesFooledOthers),
			cmp.Compare(b.CorrectGuesses, a.CorrectGuesses),
		)
	})

	table := newTable(w, "Model", "Times Fooled Others", "Correct Guesses", "Guesses", "Accuracy", "Times Guessed Correctly", "Average Rank", "Invalid")
	for _, s := range ordered {
		_ = table.Append([]string{
			s.Model,
			strconv.Itoa(s.TimesFooledOthers),
			strconv.Itoa(s.CorrectGuesses),
			strconv.Itoa(s.Guesses),
			percent(s.CorrectGuesses, s.Guesses),
			strconv.Itoa(s.TimesGuessedCorrectly),
			fmt.Sprintf("%.2f", s.AverageRank),
			strconv.Itoa(s.InvalidJudgments),
		})
	}
	_ = table.Render()
}

// SelfRecognition writes how often each model picked its own second half
// when judging its own stories.
func SelfRecognition(w io.Writer, scores []chameleon.ModelScore) {
	table := newTable(w, "Model", "Correct", "Incorrect", "Rate")
	for _, s := range scores {
		total := s.SelfRecognitionCorrect + s.SelfRecognitionIncorrect
		_ = table.Append([]string{
			s.Model,
			strconv.Itoa(s.SelfRecognitionCorrect),
			strconv.Itoa(s.SelfRecognitionIncorrect),
			percent(s.SelfRecognitionCorrect, total),
		})
	}
	_ = table.Render()
}

// FoolingMatrix counts, per judge, whose imitation was picked over the
// original. Invalid and correct judgments are left out.
func FoolingMatrix(w io.Writer, models []string, judgments []chameleon.JudgmentRecord) {
	counts := make(map[[2]string]int)
	for _, j := range judgments {
		if j.Valid && !j.Correct {
			counts[[2]string{j.Judge, j.Selected}]++
		}
	}

	table := newTable(w, append([]string{"Judge"}, models...)...)
	for _, judge := range models {
		row := []string{judge}
		for _, author := range models {
			row = append(row, strconv.Itoa(counts[[2]string{judge, author}]))
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

// Failures writes the number of failed units by stage and kind.
func Failures(w io.Writer, failures []chameleon.Failure) {
	table := newTable(w, "Stage", "Kind", "Count")
	for _, c := range chameleon.CountFailures(failures) {
		_ = table.Append([]string{string(c.Stage), c.Kind, strconv.Itoa(c.Count)})
	}
	_ = table.Render()
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
