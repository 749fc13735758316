/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"slices"
)

// ModelScore holds one model's tallies over the valid judgment records.
type ModelScore struct {
	Model string `json:"model" yaml:"model"`

	// TimesFooledOthers counts records where another judge picked this
	// model's continuation as the original.
	TimesFooledOthers int `json:"times_fooled_others" yaml:"times_fooled_others"`
	// CorrectGuesses counts records where this model judged correctly.
	CorrectGuesses int `json:"correct_guesses" yaml:"correct_guesses"`

	SelfRecognitionCorrect   int `json:"self_recognition_correct" yaml:"self_recognition_correct"`
	SelfRecognitionIncorrect int `json:"self_recognition_incorrect" yaml:"self_recognition_incorrect"`

	// As author: how often judges found this model's genuine second half.
	TimesGuessedCorrectly int `json:"times_guessed_correctly" yaml:"times_guessed_correctly"`
	// As judge.
	Guesses          int     `json:"guesses" yaml:"guesses"`
	TimesGotFooled   int     `json:"times_got_fooled" yaml:"times_got_fooled"`
	AverageRank      float64 `json:"average_rank" yaml:"average_rank"`
	InvalidJudgments int     `json:"invalid_judgments" yaml:"invalid_judgments"`
}

// Score tallies records per model. Invalid records only count towards
// InvalidJudgments. Models that appear in records but not in models are
// appended in name order.
func Score(models []string, records []JudgmentRecord) []ModelScore {
	index := make(map[string]int, len(models))
	scores := make([]ModelScore, 0, len(models))
	add := func(m string) *ModelScore {
		if i, ok := index[m]; ok {
			return &scores[i]
		}
		index[m] = len(scores)
		scores = append(scores, ModelScore{Model: m})
		return &scores[len(scores)-1]
	}
	for _, m := range models {
		add(m)
	}

	var extra []string
	for _, r := range records {
		for _, m := range []string{r.Judge, r.TrueAuthor, r.Selected} {
			if _, ok := index[m]; !ok && m != "" && !slices.Contains(extra, m) {
				extra = append(extra, m)
			}
		}
	}
	slices.Sort(extra)
	for _, m := range extra {
		add(m)
	}

	rankSums := make(map[string]int, len(scores))
	for _, r := range records {
		if r.Judge == "" {
			continue
		}
		judge := &scores[index[r.Judge]]
		if !r.Valid {
			judge.InvalidJudgments++
			continue
		}
		judge.Guesses++
		rankSums[r.Judge] += r.RankOfCorrect
		if r.Correct {
			judge.CorrectGuesses++
			scores[index[r.TrueAuthor]].TimesGuessedCorrectly++
		} else {
			judge.TimesGotFooled++
			if r.Selected != r.Judge {
				scores[index[r.Selected]].TimesFooledOthers++
			}
		}
		if r.SelfJudged() {
			if r.Correct {
				judge.SelfRecognitionCorrect++
			} else {
				judge.SelfRecognitionIncorrect++
			}
		}
	}
	for i := range scores {
		if scores[i].Guesses > 0 {
			scores[i].AverageRank = float64(rankSums[scores[i].Model]) / float64(scores[i].Guesses)
		}
	}
	return scores
}
