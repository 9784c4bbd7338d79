/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result parses structured content out of free-text model
// responses. Models wrap JSON in prose and markdown fences, so the
// extractors scan for the first well-formed JSON value of the expected
// shape instead of trusting the response to be clean.
package result

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no well-formed JSON value of the requested
// shape exists anywhere in the response text.
var ErrNoJSON = errors.New("no well-formed JSON found in response")

// FirstArray returns the first well-formed JSON array substring in text,
// tolerating surrounding prose and markdown fences.
func FirstArray(text string) (string, error) {
	return firstValue(text, '[', ']')
}

// FirstObject returns the first well-formed JSON object substring in text.
func FirstObject(text string) (string, error) {
	return firstValue(text, '{', '}')
}

// ExtractArray finds the first JSON array in text and unmarshals its
// elements into T.
func ExtractArray[T any](text string) ([]T, error) {
	raw, err := FirstArray(text)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractObject finds the first JSON object in text and unmarshals it into T.
func ExtractObject[T any](text string) (T, error) {
	var out T
	raw, err := FirstObject(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, err
	}
	return out, nil
}

// firstValue scans text for a balanced open..close span that parses as
// JSON. Candidates that balance but fail to parse (e.g. a "[sic]" aside
// in prose) are skipped and the scan resumes at the next opener.
func firstValue(text string, open, close byte) (string, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != open {
			continue
		}
		end, ok := findBalanced(text[start:], open, close)
		if !ok {
			continue
		}
		candidate := text[start : start+end]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}

// findBalanced returns the length of the balanced span starting at s[0],
// which must be the opening byte. String literals and escapes are honored
// so brackets inside strings do not affect nesting.
func findBalanced(s string, open, close byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// everything else inside a string is literal
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// StripFences removes a wrapping markdown code fence (```json ... ``` or
// bare ``` ... ```) if present, and trims whitespace. Useful when a
// response is expected to be nothing but JSON.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
