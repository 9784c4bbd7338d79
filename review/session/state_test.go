/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session_test

import (
	"testing"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/session"
	"github.com/google/go-cmp/cmp"
)

func TestDefaultBudget(t *testing.T) {
	s := session.New(0)
	if s.MaxIterations() != session.DefaultMaxIterations {
		t.Errorf("got %d, want %d", s.MaxIterations(), session.DefaultMaxIterations)
	}
}

func TestChangedFilesGrowMonotonically(t *testing.T) {
	s := session.New(10)
	s.AddChangedFile("a.py", "def f(): pass")
	s.AddChangedFile("b.py", "x = 1")
	s.AddChangedFile("a.py", "def f(): return 1") // refetch overwrites content

	if got := s.ChangedFileCount(); got != 2 {
		t.Errorf("got %d files, want 2", got)
	}
	if diff := cmp.Diff([]string{"a.py", "b.py"}, s.ChangedFileNames()); diff != "" {
		t.Errorf("unexpected names (-want +got):\n%s", diff)
	}
	content, ok := s.ChangedFile("a.py")
	if !ok || content != "def f(): return 1" {
		t.Errorf("got %q, %v", content, ok)
	}
}

func TestReplaceFindings(t *testing.T) {
	s := session.New(10)
	s.AppendFindings(
		review.Finding{File: "a.py", Severity: review.SeverityInfo, Message: "noise"},
		review.Finding{File: "a.py", Severity: review.SeverityError, Message: "bug"},
	)

	filtered := []review.Finding{{File: "a.py", Severity: review.SeverityError, Message: "bug"}}
	s.ReplaceFindings(filtered)

	if diff := cmp.Diff(filtered, s.Findings()); diff != "" {
		t.Errorf("unexpected findings (-want +got):\n%s", diff)
	}

	// Mutating the returned slice must not affect state.
	got := s.Findings()
	got[0].Message = "mutated"
	if s.Findings()[0].Message != "bug" {
		t.Error("Findings() leaked internal slice")
	}
}

func TestReasoningTraceTagsIteration(t *testing.T) {
	s := session.New(10)
	s.AddReasoning("before any iteration")
	s.NextIteration()
	s.AddReasoning("first pass")
	s.NextIteration()
	s.AddReasoning("second pass")

	want := []session.Thought{
		{Iteration: 0, Thought: "before any iteration"},
		{Iteration: 1, Thought: "first pass"},
		{Iteration: 2, Thought: "second pass"},
	}
	if diff := cmp.Diff(want, s.ReasoningTrace()); diff != "" {
		t.Errorf("unexpected trace (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	s := session.New(10)
	s.AddChangedFile("a.py", "pass")
	s.AddRelatedFile("base.py", "class Base: pass")
	s.AppendFindings(review.Finding{File: "a.py", Severity: review.SeverityWarning, Message: "w"})
	s.NextIteration()
	s.NextIteration()
	s.MarkPublished(true)

	got := s.Summarize("published")
	want := session.Summary{
		Iterations:      2,
		FilesReviewed:   1,
		RelatedFiles:    1,
		FinalFindings:   1,
		Published:       true,
		PublishFallback: true,
		Reason:          "published",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected summary (-want +got):\n%s", diff)
	}
}
