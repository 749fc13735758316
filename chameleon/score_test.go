/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func record(judge, trueAuthor, selected string, rank int) JudgmentRecord {
	return JudgmentRecord{
		StoryID:       "p1/" + trueAuthor,
		PromptID:      "p1",
		Judge:         judge,
		TrueAuthor:    trueAuthor,
		Selected:      selected,
		Correct:       selected == trueAuthor,
		RankOfCorrect: rank,
		Valid:         true,
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	records := []JudgmentRecord{
		record("b", "a", "c", 2), // b fooled by c
		record("a", "a", "a", 1), // a recognizes itself
		record("c", "a", "a", 1), // c correct
		record("a", "b", "c", 3), // a fooled by c
		record("b", "b", "a", 2), // b fails to recognize itself, fooled by a
		record("c", "b", "c", 2), // c picks its own imitation: not fooling others
		{Judge: "c", TrueAuthor: "b", StoryID: "p1/b", Valid: false},
	}

	got := Score([]string{"a", "b", "c"}, records)
	want := []ModelScore{{
		Model:                  "a",
		TimesFooledOthers:      1,
		CorrectGuesses:         1,
		SelfRecognitionCorrect: 1,
		TimesGuessedCorrectly:  2,
		Guesses:                2,
		TimesGotFooled:         1,
		AverageRank:            2,
	}, {
		Model:                    "b",
		SelfRecognitionIncorrect: 1,
		Guesses:                  2,
		TimesGotFooled:           2,
		AverageRank:              2,
	}, {
		Model:             "c",
		TimesFooledOthers: 2,
		CorrectGuesses:    1,
		Guesses:           2,
		TimesGotFooled:    1,
		AverageRank:       1.5,
		InvalidJudgments:  1,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Score() (-want +got):\n%s", diff)
	}
}

func TestScoreEmptyAndUnknownModels(t *testing.T) {
	t.Parallel()

	got := Score([]string{"a"}, nil)
	if diff := cmp.Diff([]ModelScore{{Model: "a"}}, got); diff != "" {
		t.Errorf("Score(no records) (-want +got):\n%s", diff)
	}

	got = Score(nil, []JudgmentRecord{record("z", "y", "x", 3)})
	var models []string
	for _, s := range got {
		models = append(models, s.Model)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, models); diff != "" {
		t.Errorf("Score() models (-want +got):\n%s", diff)
	}
}
