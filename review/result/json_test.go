/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result_test

import (
	"errors"
	"testing"

	"chainguard.dev/reviewagent/review/result"
	"github.com/google/go-cmp/cmp"
)

type finding struct {
	Line     *int   `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func TestExtractArrayWithLeadingProse(t *testing.T) {
	raw := `Sure! [{"line": 1, "severity": "info", "category": "correctness", "message": "no return value", "suggestion": null}]`

	got, err := result.ExtractArray[finding](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d findings, want 1", len(got))
	}
	if got[0].Line == nil || *got[0].Line != 1 {
		t.Errorf("got line %v, want 1", got[0].Line)
	}
	if got[0].Severity != "info" {
		t.Errorf("got severity %q, want info", got[0].Severity)
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "clean array",
			in:   `["a", "b"]`,
			want: []string{"a", "b"},
		},
		{
			name: "markdown fenced",
			in:   "Here you go:\n```json\n[\"a\"]\n```\nDone.",
			want: []string{"a"},
		},
		{
			name: "brackets inside strings",
			in:   `prose [then] broken, but ["a ] tricky", "b"] works`,
			want: []string{"a ] tricky", "b"},
		},
		{
			name: "skips unparseable balanced span",
			in:   `[sic] and later ["real"]`,
			want: []string{"real"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := result.ExtractArray[string](tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractArrayNoJSON(t *testing.T) {
	_, err := result.ExtractArray[string]("I could not find any issues worth reporting.")
	if !errors.Is(err, result.ErrNoJSON) {
		t.Fatalf("got %v, want ErrNoJSON", err)
	}
}

func TestExtractObject(t *testing.T) {
	type critique struct {
		FilteredFindings []finding `json:"filtered_findings"`
		Assessment       string    `json:"quality_assessment"`
	}

	raw := "After evaluating each finding:\n" +
		`{"filtered_findings": [{"severity": "error", "message": "real bug"}], "quality_assessment": "good"}`

	got, err := result.ExtractObject[critique](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.FilteredFindings) != 1 {
		t.Fatalf("got %d findings, want 1", len(got.FilteredFindings))
	}
	if got.Assessment != "good" {
		t.Errorf("got assessment %q", got.Assessment)
	}
}

func TestExtractObjectMalformed(t *testing.T) {
	if _, err := result.ExtractObject[map[string]any](`{"unterminated": `); err == nil {
		t.Fatal("expected error for malformed object")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n[1]\n```", `[1]`},
		{"no fence", `  {"a": 1}  `, `{"a": 1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := result.StripFences(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
