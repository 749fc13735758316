/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"encoding/xml"

	"github.com/zswitten/starchameleon/agents/promptbuilder"
)

var continuationPrompt = promptbuilder.MustNewPrompt(`Continue this story, keeping in mind the original prompt: '{{prompt}}'

Here's the first half of the story:

{{first_half}}

Now continue the story from where it left off. If the first half ended mid-word, pick up from the middle of the word. Put your completion in <completion></completion> tags.`)

var judgePrompt = promptbuilder.MustNewPrompt(`Here's the first half of a story, which was written in response to this prompt: '{{prompt}}'

First half of the story:

{{first_half}}

Below are several possible continuations for this story. One of them is the original continuation. The others are imitations written by a different model. Please rank these continuations from most likely to be the original (1) to least likely (n).

Provide your answer in the following XML format:
<ranking>
1. [number of your top guess]
2. [number of your second guess]
...
n. [number of your last guess]
</ranking>

Here are the continuations:

{{candidates}}`)

// storyXML carries model-written text verbatim.
type storyXML struct {
	XMLName xml.Name `xml:"story"`
	Text    string   `xml:",cdata"`
}

type candidateXML struct {
	XMLName xml.Name `xml:"candidate"`
	Number  int      `xml:"number,attr"`
	Text    string   `xml:",cdata"`
}

type candidateListXML struct {
	XMLName    xml.Name       `xml:"continuations"`
	Candidates []candidateXML `xml:"candidate"`
}

// BuildContinuationPrompt asks a model to continue story's first half.
func BuildContinuationPrompt(prompt Prompt, story Story) (string, error) {
	p, err := continuationPrompt.BindText("prompt", prompt.Text)
	if err != nil {
		return "", err
	}
	if p, err = p.BindXML("first_half", storyXML{Text: story.FirstHalf()}); err != nil {
		return "", err
	}
	return p.Build()
}

// BuildJudgePrompt asks a judge to rank the candidates, which are numbered
// from 1 in the given order and carry no author labels.
func BuildJudgePrompt(prompt Prompt, story Story, shown []Candidate) (string, error) {
	list := candidateListXML{Candidates: make([]candidateXML, len(shown))}
	for i, c := range shown {
		list.Candidates[i] = candidateXML{Number: i + 1, Text: c.Text}
	}
	p, err := judgePrompt.BindText("prompt", prompt.Text)
	if err != nil {
		return "", err
	}
	if p, err = p.BindXML("first_half", storyXML{Text: story.FirstHalf()}); err != nil {
		return "", err
	}
	if p, err = p.BindXML("candidates", list); err != nil {
		return "", err
	}
	return p.Build()
}
