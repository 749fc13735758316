/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package result extracts structured answers from free-form model text.
package result

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTagNotFound is returned when the requested section is absent.
var ErrTagNotFound = errors.New("tag not found")

// ExtractTag returns the trimmed content of the first <tag>...</tag> section.
func ExtractTag(text, tag string) (string, error) {
	open, closing := "<"+tag+">", "</"+tag+">"
	start := strings.Index(text, open)
	if start == -1 {
		return "", fmt.Errorf("%w: <%s>", ErrTagNotFound, tag)
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, closing)
	if end == -1 {
		return "", fmt.Errorf("%w: </%s>", ErrTagNotFound, tag)
	}
	return strings.TrimSpace(rest[:end]), nil
}

// ExtractTagOrTrim returns the tagged section when present and the whole
// trimmed text otherwise. found reports which one it was.
func ExtractTagOrTrim(text, tag string) (content string, found bool) {
	if body, err := ExtractTag(text, tag); err == nil {
		return body, true
	}
	return strings.TrimSpace(text), false
}

// ParseNumberedList parses lines of the form "<position>. <value>" and
// returns the values in line order. Blank lines are skipped; positions must
// count up from 1. Surrounding brackets around the value ("[3]") are tolerated.
func ParseNumberedList(body string) ([]int, error) {
	var values []int
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pos, val, ok := strings.Cut(line, ".")
		if !ok {
			return nil, fmt.Errorf("line %q: missing '.' separator", line)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return nil, fmt.Errorf("line %q: position: %w", line, err)
		}
		if n != len(values)+1 {
			return nil, fmt.Errorf("line %q: position %d out of order, expected %d", line, n, len(values)+1)
		}
		val = strings.Trim(strings.TrimSpace(val), "[]")
		v, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("line %q: value: %w", line, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.New("empty list")
	}
	return values, nil
}
