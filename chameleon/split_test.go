/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"testing"
)

func TestSplitHalves(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantFirst  string
		wantSecond string
	}{
		{name: "empty", text: "", wantFirst: "", wantSecond: ""},
		{name: "blank", text: "  \n ", wantFirst: "  \n ", wantSecond: ""},
		{name: "one word", text: "  hello", wantFirst: "", wantSecond: "  hello"},
		{name: "two words", text: "hello world", wantFirst: "hello ", wantSecond: "world"},
		{name: "odd count", text: "a b c d e", wantFirst: "a b ", wantSecond: "c d e"},
		{name: "even count", text: "a b c d", wantFirst: "a b ", wantSecond: "c d"},
		{name: "newlines stay with first half", text: "one two\n\nthree four", wantFirst: "one two\n\n", wantSecond: "three four"},
		{name: "trailing space", text: "a b c d  ", wantFirst: "a b ", wantSecond: "c d  "},
		{name: "unicode spaces", text: "α β γ δ", wantFirst: "α β ", wantSecond: "γ δ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			first, second := SplitHalves(tt.text)
			if first != tt.wantFirst || second != tt.wantSecond {
				t.Errorf("SplitHalves(%q): got = (%q, %q), wanted = (%q, %q)", tt.text, first, second, tt.wantFirst, tt.wantSecond)
			}
			if first+second != tt.text {
				t.Errorf("SplitHalves(%q) is not exhaustive", tt.text)
			}
			again1, again2 := SplitHalves(tt.text)
			if again1 != first || again2 != second {
				t.Errorf("SplitHalves(%q) is not deterministic", tt.text)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	for text, want := range map[string]int{
		"":                0,
		"   ":             0,
		"one":             1,
		" one  two\tthree": 3,
	} {
		if got := WordCount(text); got != want {
			t.Errorf("WordCount(%q): got = %d, wanted = %d", text, got, want)
		}
	}
}

func FuzzSplitHalves(f *testing.F) {
	for _, seed := range []string{"", "a", "a b", "lorem ipsum dolor sit amet", "\t\nx  y　z"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, text string) {
		first, second := SplitHalves(text)
		if first+second != text {
			t.Fatalf("SplitHalves(%q) = (%q, %q) does not reproduce the input", text, first, second)
		}
		n := WordCount(text)
		if got := WordCount(second); n > 0 && got != n-n/2 {
			t.Errorf("second half of %q has %d words, wanted %d", text, got, n-n/2)
		}
	})
}
