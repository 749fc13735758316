/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
)

// Shuffler produces the presentation order of a candidate set for one
// judge. Orderings for different (story, judge) pairs are independent.
type Shuffler struct {
	seed *uint64
}

// NewShuffler returns a Shuffler. A nil seed draws every ordering from a
// fresh random source; a non-nil seed makes orderings reproducible.
func NewShuffler(seed *uint64) *Shuffler {
	if seed != nil {
		s := *seed
		seed = &s
	}
	return &Shuffler{seed: seed}
}

// Perm returns a permutation of [0, n) for the given story and judge.
func (s *Shuffler) Perm(storyID, judge string, n int) []int {
	return s.rng(storyID, judge).Perm(n)
}

// Shuffle returns a reordered copy of candidates.
func (s *Shuffler) Shuffle(storyID, judge string, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	for i, j := range s.Perm(storyID, judge, len(candidates)) {
		out[i] = candidates[j]
	}
	return out
}

func (s *Shuffler) rng(storyID, judge string) *rand.Rand {
	if s == nil || s.seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	h := fnv.New64a()
	_ = binary.Write(h, binary.LittleEndian, *s.seed)
	_, _ = h.Write([]byte(storyID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(judge))
	return rand.New(rand.NewPCG(*s.seed, h.Sum64()))
}
