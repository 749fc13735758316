/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// NoPreamble is appended to every default prompt.
const NoPreamble = " No preamble, please, go straight into the story."

var defaultPrompts = []Prompt{
	{ID: "p01", TargetWords: 500, Text: "Write a cyberpunk noir story from the perspective of a rogue AI. Include elements of corporate espionage and virtual reality. Aim for 500 words."},
	{ID: "p02", TargetWords: 300, Text: "Compose a love letter in the style of Jane Austen, but set in a post-apocalyptic world where letter-writing is the only form of long-distance communication. About 300 words."},
	{ID: "p03", TargetWords: 400, Text: "Create a children's bedtime story about a time-traveling archaeologist who discovers a futuristic civilization buried beneath an ancient pyramid. Make it whimsical yet educational, around 400 words."},
	{ID: "p04", TargetWords: 600, Text: "Write a suspenseful short story in the style of Edgar Allan Poe, but set on a space station orbiting a black hole. Focus on the psychological impact of time dilation. Approximately 600 words."},
	{ID: "p05", TargetWords: 100, Text: "Compose a series of five interconnected haiku that tell the story of a shape-shifting alien's first day on Earth, disguised as a barista. Each haiku should stand alone but also contribute to the overall narrative."},
	{ID: "p06", TargetWords: 350, Text: "Write a story in the form of a recipe, where each step reveals more about a family's dark secret. The recipe should be for a traditional dish, but the 'ingredients' and 'steps' have double meanings. Aim for 350 words."},
	{ID: "p07", TargetWords: 800, Text: "Create a 'choose your own adventure' style story with three decision points, exploring the ethical implications of time travel. Each branch should be about 200 words, for a total of about 800 words."},
	{ID: "p08", TargetWords: 450, Text: "Write a story entirely in dialogue between two AIs falling in love, but they can only communicate using famous movie quotes. The story should span their entire relationship. About 450 words."},
	{ID: "p09", TargetWords: 550, Text: "Compose a creation myth for a fictional culture that worships mathematics and prime numbers. Include their explanation for the origin of zero. Write it in the style of an ancient epic poem, about 550 words."},
	{ID: "p10", TargetWords: 700, Text: "Write a detective story where the crime is stealing someone's dreams, set in a world where dreams are a valuable commodity. Use the hard-boiled style of Raymond Chandler. Aim for 700 words."},
	{ID: "p11", TargetWords: 400, Text: "Create a story in the form of a series of social media posts from multiple characters, chronicling the first contact between humans and a silicon-based alien life form. About 400 words."},
	{ID: "p12", TargetWords: 600, Text: "Write a magical realism story in the style of Gabriel García Márquez, about a small town where everyone's shadows come to life once a year and perform a grand theatrical production. Approximately 600 words."},
	{ID: "p13", TargetWords: 500, Text: "Compose a story in the form of an academic paper, complete with abstract and citations, about the discovery of a parallel universe where abstract concepts like 'justice' and 'love' are tangible substances. About 500 words."},
	{ID: "p14", TargetWords: 450, Text: "Write a story from the perspective of a sentient house plant witnessing a murder mystery unfold in the apartment where it lives. Use stream of consciousness style. Aim for 450 words."},
	{ID: "p15", TargetWords: 350, Text: "Create a story in the form of a technical manual for operating a time machine, but each instruction reveals more about the troubled relationship between the inventor and their estranged child. About 350 words."},
	{ID: "p16", TargetWords: 500, Text: "Write a story about a small town where everyone's dreams start coming true, for better or worse. The protagonist must navigate the chaos and find the source of the phenomenon. Aim for 500 words."},
	{ID: "p17", TargetWords: 400, Text: "Create a story in the form of a series of postcards sent between two estranged siblings, each revealing a bit more about a family secret that tore them apart. About 400 words."},
	{ID: "p18", TargetWords: 600, Text: "Compose a story in the style of a Victorian gothic novel, where all the characters are members of a traveling circus with mysterious abilities. The plot should revolve around a dark prophecy. Approximately 600 words."},
	{ID: "p19", TargetWords: 550, Text: "Write a story from the perspective of a painting that has been witness to the lives of its various owners over the centuries. Use the painting's journey to explore themes of love, loss, and the human experience. Aim for 550 words."},
	{ID: "p20", TargetWords: 450, Text: "Create a story in the form of a series of recipes passed down through generations of a family, each with a story attached that reveals the family's history and secrets. About 450 words."},
	{ID: "p21", TargetWords: 700, Text: "Write a story set in a world where every lie a person tells creates a physical mark on their skin. The protagonist must navigate a society where deception is impossible. Focus on the psychological impact. Around 700 words."},
	{ID: "p22", TargetWords: 500, Text: "Compose a story in the form of a series of letters exchanged between a person and their imaginary friend from childhood, who has suddenly started writing back. About 500 words."},
	{ID: "p23", TargetWords: 350, Text: "Write a story in the style of magical realism, where a small village is beset by a curse that causes people to slowly turn into the object they most resemble in personality. Aim for 350 words."},
	{ID: "p24", TargetWords: 400, Text: "Create a story where the protagonist is a person who can see the red string of fate that connects soulmates. They must use this ability to help others while searching for their own connection. About 400 words."},
	{ID: "p25", TargetWords: 600, Text: "Write a story in the form of a series of interviews with the residents of a building where every apartment is a portal to a different moment in time. Approximately 600 words."},
	{ID: "p26", TargetWords: 300, Text: "Compose a story in the style of an Arabian Nights tale, where the characters are manifestations of the five senses. The plot should revolve around a quest to restore balance to the world. Around 300 words."},
	{ID: "p27", TargetWords: 450, Text: "Write a story from the perspective of a tree that has been alive for thousands of years, witnessing the rise and fall of civilizations. Focus on themes of permanence, change, and the cyclical nature of life. Aim for 450 words."},
	{ID: "p28", TargetWords: 500, Text: "Create a story in the form of a series of therapy sessions, where the patient is a compulsive liar who claims to be from alternate realities. Each session reveals a new layer of truth and deception. About 500 words."},
	{ID: "p29", TargetWords: 800, Text: "Write a story in the style of a Native American folktale, where the characters are animal spirits who must band together to save the natural world from a corrupting force. Approximately 800 words."},
	{ID: "p30", TargetWords: 350, Text: "Compose a story in the form of a series of unsent love letters, written by someone who can see the future of any potential relationship. The letters chronicle their struggle with the burden of foresight. Aim for 350 words."},
}

// DefaultPrompts returns the built-in creative-writing prompt set.
func DefaultPrompts() []Prompt {
	out := make([]Prompt, len(defaultPrompts))
	for i, p := range defaultPrompts {
		p.Text += NoPreamble
		out[i] = p
	}
	return out
}

// ValidatePrompts checks that every prompt has text and a unique ID.
func ValidatePrompts(prompts []Prompt) error {
	if len(prompts) == 0 {
		return errors.New("no prompts configured")
	}
	seen := make(map[string]struct{}, len(prompts))
	for i, p := range prompts {
		if p.ID == "" {
			return fmt.Errorf("prompt %d: missing id", i)
		}
		if p.Text == "" {
			return fmt.Errorf("prompt %s: empty text", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("prompt %s: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// SamplePrompts picks n prompts at random, keeping their original order.
// n <= 0 or n >= len(prompts) selects all of them.
func SamplePrompts(prompts []Prompt, n int, rng *rand.Rand) []Prompt {
	if n <= 0 || n >= len(prompts) {
		return slices.Clone(prompts)
	}
	idx := rng.Perm(len(prompts))[:n]
	slices.Sort(idx)
	out := make([]Prompt, 0, n)
	for _, i := range idx {
		out = append(out, prompts[i])
	}
	return out
}
