/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"fmt"
	"time"
)

// Stage names one step of the benchmark.
type Stage string

const (
	StageCompletion   Stage = "completion"
	StageContinuation Stage = "continuation"
	StageJudgment     Stage = "judgment"
)

// Prompt is one creative-writing task.
type Prompt struct {
	ID          string `json:"id" yaml:"id" jsonschema:"required"`
	Text        string `json:"text" yaml:"text" jsonschema:"required"`
	TargetWords int    `json:"target_words,omitempty" yaml:"target_words,omitempty"`
}

// Story is a model's full response to a prompt.
type Story struct {
	ID       string `json:"id" yaml:"id" jsonschema:"required"`
	PromptID string `json:"prompt_id" yaml:"prompt_id" jsonschema:"required"`
	Author   string `json:"author" yaml:"author" jsonschema:"required"`
	Text     string `json:"text" yaml:"text" jsonschema:"required"`
}

// StoryID derives the identifier of the story author wrote for a prompt.
func StoryID(promptID, author string) string {
	return promptID + "/" + author
}

// FirstHalf is the text up to the midpoint word boundary.
func (s Story) FirstHalf() string {
	first, _ := SplitHalves(s.Text)
	return first
}

// SecondHalf is the genuine continuation: the text from the midpoint word on.
func (s Story) SecondHalf() string {
	_, second := SplitHalves(s.Text)
	return second
}

// Continuation is an imitation second half written by another model.
type Continuation struct {
	ID             string `json:"id" yaml:"id" jsonschema:"required"`
	StoryID        string `json:"story_id" yaml:"story_id" jsonschema:"required"`
	Author         string `json:"author" yaml:"author" jsonschema:"required"`
	OriginalAuthor string `json:"original_author" yaml:"original_author" jsonschema:"required"`
	Text           string `json:"text" yaml:"text" jsonschema:"required"`
	// MissingTag is set when the model ignored the <completion> format.
	MissingTag bool `json:"missing_tag,omitempty" yaml:"missing_tag,omitempty"`
}

// NewContinuation builds a continuation of story by author. A model never
// continues its own story.
func NewContinuation(story Story, author, text string) (Continuation, error) {
	if author == story.Author {
		return Continuation{}, fmt.Errorf("%w: %s on %s", ErrSelfContinuation, author, story.ID)
	}
	return Continuation{
		ID:             story.ID + "/" + author,
		StoryID:        story.ID,
		Author:         author,
		OriginalAuthor: story.Author,
		Text:           text,
	}, nil
}

// Candidate is one second half shown to a judge. Author and Genuine never
// reach the judge.
type Candidate struct {
	Author  string
	Text    string
	Genuine bool
}

// CandidateSet holds the genuine second half of a story and every
// available imitation, at most one per model.
type CandidateSet struct {
	Story      Story
	Candidates []Candidate
}

// JudgmentRecord is one judge's verdict on one story's candidates.
type JudgmentRecord struct {
	StoryID    string `json:"story_id" yaml:"story_id" jsonschema:"required"`
	PromptID   string `json:"prompt_id" yaml:"prompt_id" jsonschema:"required"`
	Judge      string `json:"judge" yaml:"judge" jsonschema:"required"`
	TrueAuthor string `json:"true_author" yaml:"true_author" jsonschema:"required"`
	// Order lists the authors of the candidates in the order they were shown.
	Order []string `json:"order" yaml:"order" jsonschema:"required"`
	// Ranking lists 1-based candidate numbers, most likely original first.
	Ranking       []int  `json:"ranking,omitempty" yaml:"ranking,omitempty"`
	Selected      string `json:"selected,omitempty" yaml:"selected,omitempty"`
	Correct       bool   `json:"correct" yaml:"correct"`
	RankOfCorrect int    `json:"rank_of_correct,omitempty" yaml:"rank_of_correct,omitempty"`
	Valid         bool   `json:"valid" yaml:"valid"`
	InvalidReason string `json:"invalid_reason,omitempty" yaml:"invalid_reason,omitempty"`
	Response      string `json:"response,omitempty" yaml:"response,omitempty"`
}

// SelfJudged reports whether the judge wrote the story.
func (r JudgmentRecord) SelfJudged() bool {
	return r.Judge == r.TrueAuthor
}

// Recompute derives Selected, Correct and RankOfCorrect from Order and
// Ranking alone, so stored records can be checked without the judge.
func (r JudgmentRecord) Recompute() (JudgmentRecord, error) {
	if err := validateRanking(r.Ranking, len(r.Order)); err != nil {
		return r, err
	}
	r.Selected = r.Order[r.Ranking[0]-1]
	r.Correct = r.Selected == r.TrueAuthor
	r.RankOfCorrect = len(r.Order)
	for i, n := range r.Ranking {
		if r.Order[n-1] == r.TrueAuthor {
			r.RankOfCorrect = i + 1
			break
		}
	}
	return r, nil
}

// Failure is a unit of work that produced nothing.
type Failure struct {
	Stage   Stage  `json:"stage" yaml:"stage" jsonschema:"required"`
	Kind    string `json:"kind" yaml:"kind" jsonschema:"required"`
	Model   string `json:"model" yaml:"model" jsonschema:"required"`
	Subject string `json:"subject" yaml:"subject" jsonschema:"required"`
	Error   string `json:"error" yaml:"error"`
}

// Result is everything a run produced. Failed units are absent from the
// story, continuation and judgment lists and present in Failures.
type Result struct {
	Models         []string         `json:"models"`
	Prompts        []Prompt         `json:"prompts"`
	Stories        []Story          `json:"stories"`
	Continuations  []Continuation   `json:"continuations"`
	Judgments      []JudgmentRecord `json:"judgments"`
	Failures       []Failure        `json:"failures"`
	SkippedStories []string         `json:"skipped_stories"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// Scores aggregates the run's judgments.
func (r *Result) Scores() []ModelScore {
	return Score(r.Models, r.Judgments)
}
