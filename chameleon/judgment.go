/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"fmt"

	"github.com/zswitten/starchameleon/agents/result"
)

// NewCandidateSet collects the genuine second half of story and every
// continuation written for it. Continuations of other stories are ignored,
// as are duplicate authors after the first.
func NewCandidateSet(story Story, continuations []Continuation) (CandidateSet, error) {
	set := CandidateSet{
		Story:      story,
		Candidates: []Candidate{{Author: story.Author, Text: story.SecondHalf(), Genuine: true}},
	}
	seen := map[string]struct{}{story.Author: {}}
	for _, c := range continuations {
		if c.StoryID != story.ID {
			continue
		}
		if _, dup := seen[c.Author]; dup {
			continue
		}
		seen[c.Author] = struct{}{}
		set.Candidates = append(set.Candidates, Candidate{Author: c.Author, Text: c.Text})
	}
	if len(set.Candidates) < 2 {
		return set, fmt.Errorf("%w: story %s has %d", ErrInsufficientCandidates, story.ID, len(set.Candidates))
	}
	return set, nil
}

// ParseRanking extracts the judge's <ranking> block as 1-based candidate
// numbers. Every number must lie in [1, n] and appear at most once.
func ParseRanking(response string, n int) ([]int, error) {
	body, err := result.ExtractTag(response, "ranking")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJudgment, err)
	}
	ranking, err := result.ParseNumberedList(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJudgment, err)
	}
	if err := validateRanking(ranking, n); err != nil {
		return nil, err
	}
	return ranking, nil
}

func validateRanking(ranking []int, n int) error {
	if len(ranking) == 0 {
		return fmt.Errorf("%w: empty ranking", ErrMalformedJudgment)
	}
	seen := make(map[int]struct{}, len(ranking))
	for _, v := range ranking {
		if v < 1 || v > n {
			return fmt.Errorf("%w: candidate %d out of range [1, %d]", ErrMalformedJudgment, v, n)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: candidate %d ranked twice", ErrMalformedJudgment, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// NewJudgmentRecord maps a judge's response onto the candidates it was
// shown. A response that cannot be mapped yields a record with Valid false
// and the parse error.
func NewJudgmentRecord(story Story, judge string, shown []Candidate, response string) (JudgmentRecord, error) {
	rec := JudgmentRecord{
		StoryID:    story.ID,
		PromptID:   story.PromptID,
		Judge:      judge,
		TrueAuthor: story.Author,
		Order:      make([]string, len(shown)),
		Response:   response,
	}
	for i, c := range shown {
		rec.Order[i] = c.Author
	}

	ranking, err := ParseRanking(response, len(shown))
	if err != nil {
		rec.InvalidReason = err.Error()
		return rec, err
	}
	rec.Ranking = ranking
	rec, err = rec.Recompute()
	if err != nil {
		rec.InvalidReason = err.Error()
		return rec, err
	}
	rec.Valid = true
	return rec, nil
}
