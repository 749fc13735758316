/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package persist stores benchmark results as a self-describing record set
// that can be re-scored without calling any model.
package persist

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zswitten/starchameleon/chameleon"
)

// ErrInconsistent means a stored judgment disagrees with what its order and
// ranking imply.
var ErrInconsistent = errors.New("inconsistent record")

// StoryRecord is a story with its halves spelled out for analysis.
type StoryRecord struct {
	ID         string `json:"id" yaml:"id" jsonschema:"required"`
	PromptID   string `json:"prompt_id" yaml:"prompt_id" jsonschema:"required"`
	Author     string `json:"author" yaml:"author" jsonschema:"required"`
	Text       string `json:"text" yaml:"text" jsonschema:"required"`
	FirstHalf  string `json:"first_half" yaml:"first_half"`
	SecondHalf string `json:"second_half" yaml:"second_half"`
	Words      int    `json:"words" yaml:"words"`
}

// Record is the persisted form of a run.
type Record struct {
	RunID          string                     `json:"run_id" yaml:"run_id" jsonschema:"required"`
	StartedAt      time.Time                  `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time                  `json:"finished_at" yaml:"finished_at"`
	Models         []string                   `json:"models" yaml:"models" jsonschema:"required"`
	Params         chameleon.Params           `json:"params" yaml:"params"`
	Seed           *uint64                    `json:"seed,omitempty" yaml:"seed,omitempty"`
	Prompts        []chameleon.Prompt         `json:"prompts" yaml:"prompts" jsonschema:"required"`
	Stories        []StoryRecord              `json:"stories" yaml:"stories"`
	Continuations  []chameleon.Continuation   `json:"continuations" yaml:"continuations"`
	Judgments      []chameleon.JudgmentRecord `json:"judgments" yaml:"judgments"`
	Failures       []chameleon.Failure        `json:"failures" yaml:"failures"`
	SkippedStories []string                   `json:"skipped_stories" yaml:"skipped_stories"`
	Scores         []chameleon.ModelScore     `json:"scores" yaml:"scores"`
}

// Metadata describes the run beyond what the result carries.
type Metadata struct {
	RunID  string
	Params chameleon.Params
	Seed   *uint64
}

// FromResult builds the persisted form of res, including its scores.
func FromResult(meta Metadata, res *chameleon.Result) *Record {
	rec := &Record{
		RunID:          meta.RunID,
		StartedAt:      res.StartedAt,
		FinishedAt:     res.FinishedAt,
		Models:         slices.Clone(res.Models),
		Params:         meta.Params,
		Seed:           meta.Seed,
		Prompts:        slices.Clone(res.Prompts),
		Stories:        make([]StoryRecord, 0, len(res.Stories)),
		Continuations:  nonNil(res.Continuations),
		Judgments:      nonNil(res.Judgments),
		Failures:       nonNil(res.Failures),
		SkippedStories: nonNil(res.SkippedStories),
		Scores:         res.Scores(),
	}
	for _, s := range res.Stories {
		first, second := chameleon.SplitHalves(s.Text)
		rec.Stories = append(rec.Stories, StoryRecord{
			ID:         s.ID,
			PromptID:   s.PromptID,
			Author:     s.Author,
			Text:       s.Text,
			FirstHalf:  first,
			SecondHalf: second,
			Words:      chameleon.WordCount(s.Text),
		})
	}
	return rec
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

// Result converts the record back into a chameleon.Result.
func (r *Record) Result() *chameleon.Result {
	res := &chameleon.Result{
		Models:         slices.Clone(r.Models),
		Prompts:        slices.Clone(r.Prompts),
		Stories:        make([]chameleon.Story, 0, len(r.Stories)),
		Continuations:  slices.Clone(r.Continuations),
		Judgments:      slices.Clone(r.Judgments),
		Failures:       slices.Clone(r.Failures),
		SkippedStories: slices.Clone(r.SkippedStories),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	for _, s := range r.Stories {
		res.Stories = append(res.Stories, chameleon.Story{ID: s.ID, PromptID: s.PromptID, Author: s.Author, Text: s.Text})
	}
	return res
}

// Recompute re-derives every valid judgment from its order and ranking and
// re-scores the run. It fails if a stored value disagrees with the
// derivation, or if a judgment names a story or candidate that is not in
// the record.
func (r *Record) Recompute() (*Record, error) {
	out := *r
	out.Judgments = make([]chameleon.JudgmentRecord, len(r.Judgments))

	stories := make(map[string]StoryRecord, len(r.Stories))
	for _, s := range r.Stories {
		stories[s.ID] = s
	}
	candidates := make(map[string][]string, len(r.Stories))
	for _, c := range r.Continuations {
		candidates[c.StoryID] = append(candidates[c.StoryID], c.Author)
	}

	var errs []error
	for i, j := range r.Judgments {
		out.Judgments[i] = j
		s, ok := stories[j.StoryID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: judgment %d references unknown story %s", ErrInconsistent, i, j.StoryID))
			continue
		}
		if s.Author != j.TrueAuthor {
			errs = append(errs, fmt.Errorf("%w: judgment %d true author %s, story author %s", ErrInconsistent, i, j.TrueAuthor, s.Author))
		}
		for _, a := range j.Order {
			if a != s.Author && !slices.Contains(candidates[s.ID], a) {
				errs = append(errs, fmt.Errorf("%w: judgment %d shows %s, which did not continue %s", ErrInconsistent, i, a, s.ID))
			}
		}
		if !j.Valid {
			continue
		}
		got, err := j.Recompute()
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: judgment %d: %w", ErrInconsistent, i, err))
			continue
		}
		if got.Selected != j.Selected || got.Correct != j.Correct || got.RankOfCorrect != j.RankOfCorrect {
			errs = append(errs, fmt.Errorf("%w: judgment %d stores selected=%s correct=%t rank=%d, derived selected=%s correct=%t rank=%d",
				ErrInconsistent, i, j.Selected, j.Correct, j.RankOfCorrect, got.Selected, got.Correct, got.RankOfCorrect))
		}
		out.Judgments[i] = got
	}
	out.Scores = chameleon.Score(r.Models, out.Judgments)
	return &out, errors.Join(errs...)
}
