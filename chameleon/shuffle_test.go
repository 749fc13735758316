/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestShufflerSeeded(t *testing.T) {
	t.Parallel()

	seed := uint64(7)
	s1, s2 := NewShuffler(&seed), NewShuffler(&seed)
	seed = 8 // NewShuffler keeps its own copy.

	if diff := cmp.Diff(s1.Perm("p1/a", "b", 6), s2.Perm("p1/a", "b", 6)); diff != "" {
		t.Errorf("same seed, story and judge gave different orders (-first +second):\n%s", diff)
	}

	differ := 0
	for i := range 50 {
		story := fmt.Sprintf("p%d/a", i)
		if !slices.Equal(s1.Perm(story, "a", 6), s1.Perm(story, "b", 6)) {
			differ++
		}
	}
	if differ < 40 {
		t.Errorf("judges saw the same order on %d of 50 stories", 50-differ)
	}
}

func TestShuffleKeepsCandidates(t *testing.T) {
	t.Parallel()

	in := []Candidate{{Author: "a", Genuine: true}, {Author: "b"}, {Author: "c"}, {Author: "d"}}
	out := NewShuffler(nil).Shuffle("p1/a", "b", in)

	authors := func(cs []Candidate) []string {
		var s []string
		for _, c := range cs {
			s = append(s, c.Author)
		}
		slices.Sort(s)
		return s
	}
	if diff := cmp.Diff(authors(in), authors(out)); diff != "" {
		t.Errorf("Shuffle() changed the candidates (-want +got):\n%s", diff)
	}
	if in[0].Author != "a" {
		t.Error("Shuffle() modified its input")
	}
}

// TestShuffleIndependence checks that the position of the genuine candidate
// does not depend on which judge is looking, with a chi-square test over a
// judge x position contingency table.
func TestShuffleIndependence(t *testing.T) {
	t.Parallel()

	const (
		trials = 3000
		n      = 3
	)
	seed := uint64(2026)
	s := NewShuffler(&seed)
	judges := []string{"a", "b"}

	var counts [2][n]float64
	for i := range trials {
		story := fmt.Sprintf("p%d/x", i)
		for j, judge := range judges {
			perm := s.Perm(story, judge, n)
			counts[j][slices.Index(perm, 0)]++
		}
	}

	var chi float64
	total := float64(trials * len(judges))
	for j := range judges {
		for p := range n {
			var col float64
			for k := range judges {
				col += counts[k][p]
			}
			expected := float64(trials) * col / total
			d := counts[j][p] - expected
			chi += d * d / expected
		}
	}
	// Critical value for 2 degrees of freedom at p = 0.001.
	if chi > 13.82 {
		t.Errorf("position depends on judge: chi-square = %.2f, counts = %v", chi, counts)
	}

	// Each position should also be roughly uniform for a single judge.
	for j := range judges {
		var uni float64
		expected := float64(trials) / n
		for p := range n {
			d := counts[j][p] - expected
			uni += d * d / expected
		}
		if uni > 13.82 {
			t.Errorf("judge %s positions are not uniform: chi-square = %.2f, counts = %v", judges[j], uni, counts[j])
		}
	}
}
