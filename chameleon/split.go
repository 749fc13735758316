/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"unicode"
	"unicode/utf8"
)

// SplitHalves splits text at the start of its middle word. With n
// whitespace-separated words the second half begins at word n/2, so the
// whitespace between the halves stays with the first half. first+second is
// always text.
func SplitHalves(text string) (first, second string) {
	off := splitOffset(text)
	return text[:off], text[off:]
}

// WordCount counts whitespace-separated words the same way SplitHalves does.
func WordCount(text string) int {
	return len(wordStarts(text))
}

func splitOffset(text string) int {
	starts := wordStarts(text)
	switch m := len(starts) / 2; {
	case len(starts) == 0:
		return len(text)
	case m == 0:
		return 0
	default:
		return starts[m]
	}
}

// wordStarts returns the byte offset of every word.
func wordStarts(text string) []int {
	var starts []int
	inWord := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		space := unicode.IsSpace(r)
		if !space && !inWord {
			starts = append(starts, i)
		}
		inWord = !space
		i += size
	}
	return starts
}
