/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// accumulator collects the output of concurrent units. Snapshots are
// copies sorted by prompt then model, independent of completion order.
type accumulator struct {
	mu            sync.Mutex
	promptRank    map[string]int
	modelRank     map[string]int
	stories       []Story
	continuations []Continuation
	judgments     []JudgmentRecord
	failures      []Failure
	skipped       []string
	missingTags   map[string]int
}

func newAccumulator(models []string, prompts []Prompt) *accumulator {
	a := &accumulator{
		promptRank:  make(map[string]int, len(prompts)),
		modelRank:   make(map[string]int, len(models)),
		missingTags: make(map[string]int),
	}
	for i, p := range prompts {
		a.promptRank[p.ID] = i
	}
	for i, m := range models {
		a.modelRank[m] = i
	}
	return a
}

func (a *accumulator) addStory(s Story) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stories = append(a.stories, s)
}

func (a *accumulator) addContinuation(c Continuation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.continuations = append(a.continuations, c)
	if c.MissingTag {
		a.missingTags[c.Author]++
	}
}

func (a *accumulator) addJudgment(r JudgmentRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.judgments = append(a.judgments, r)
}

func (a *accumulator) addFailure(f Failure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, f)
}

func (a *accumulator) skip(storyID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skipped = append(a.skipped, storyID)
}

// Stories returns a sorted copy of the stories collected so far.
func (a *accumulator) Stories() []Story {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := slices.Clone(a.stories)
	slices.SortFunc(out, func(x, y Story) int {
		return a.compare(x.PromptID, x.Author, y.PromptID, y.Author)
	})
	return out
}

// Continuations returns a sorted copy of the continuations collected so far.
func (a *accumulator) Continuations() []Continuation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := slices.Clone(a.continuations)
	slices.SortFunc(out, func(x, y Continuation) int {
		return cmp.Or(
			cmp.Compare(x.StoryID, y.StoryID),
			cmp.Compare(a.modelRank[x.Author], a.modelRank[y.Author]),
		)
	})
	return out
}

// Judgments returns a sorted copy of the judgment records collected so far.
func (a *accumulator) Judgments() []JudgmentRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortedJudgments()
}

// MissingTags returns a copy of the missing-tag count per model.
func (a *accumulator) MissingTags() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.missingTags)
}

func (a *accumulator) sortedJudgments() []JudgmentRecord {
	out := slices.Clone(a.judgments)
	slices.SortFunc(out, func(x, y JudgmentRecord) int {
		return cmp.Or(
			a.compare(x.PromptID, x.TrueAuthor, y.PromptID, y.TrueAuthor),
			cmp.Compare(a.modelRank[x.Judge], a.modelRank[y.Judge]),
		)
	})
	return out
}

func (a *accumulator) compare(px, mx, py, my string) int {
	return cmp.Or(
		cmp.Compare(a.promptRank[px], a.promptRank[py]),
		cmp.Compare(a.modelRank[mx], a.modelRank[my]),
	)
}

// result snapshots everything into a Result.
func (a *accumulator) result(models []string, prompts []Prompt) *Result {
	stories := a.Stories()
	continuations := a.Continuations()

	a.mu.Lock()
	defer a.mu.Unlock()
	failures := slices.Clone(a.failures)
	slices.SortStableFunc(failures, func(x, y Failure) int {
		return cmp.Or(
			cmp.Compare(stageRank(x.Stage), stageRank(y.Stage)),
			cmp.Compare(x.Subject, y.Subject),
			cmp.Compare(a.modelRank[x.Model], a.modelRank[y.Model]),
		)
	})
	skipped := slices.Clone(a.skipped)
	slices.Sort(skipped)
	return &Result{
		Models:         slices.Clone(models),
		Prompts:        slices.Clone(prompts),
		Stories:        stories,
		Continuations:  continuations,
		Judgments:      a.sortedJudgments(),
		Failures:       failures,
		SkippedStories: skipped,
	}
}

func stageRank(s Stage) int {
	switch s {
	case StageCompletion:
		return 0
	case StageContinuation:
		return 1
	default:
		return 2
	}
}
