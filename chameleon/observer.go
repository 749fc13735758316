/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

// Observer is notified as units of work finish. Implementations must be
// safe for concurrent use.
type Observer interface {
	// Call is invoked after every backend call; err is nil on success.
	Call(stage Stage, model string, err error)
	// MissingTag is invoked when a continuation came back without
	// <completion> tags.
	MissingTag(model string)
	// Judgment is invoked for every judgment record, valid or not.
	Judgment(rec JudgmentRecord)
	// Skipped is invoked when a story has too few candidates to judge.
	Skipped(storyID string)
}

type nopObserver struct{}

func (nopObserver) Call(Stage, string, error) {}
func (nopObserver) MissingTag(string)         {}
func (nopObserver) Judgment(JudgmentRecord)   {}
func (nopObserver) Skipped(string)            {}

// Observers fans notifications out to several observers.
type Observers []Observer

var _ Observer = Observers(nil)

func (o Observers) Call(stage Stage, model string, err error) {
	for _, x := range o {
		x.Call(stage, model, err)
	}
}

func (o Observers) MissingTag(model string) {
	for _, x := range o {
		x.MissingTag(model)
	}
}

func (o Observers) Judgment(rec JudgmentRecord) {
	for _, x := range o {
		x.Judgment(rec)
	}
}

func (o Observers) Skipped(storyID string) {
	for _, x := range o {
		x.Skipped(storyID)
	}
}
