/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/executor"
	"chainguard.dev/reviewagent/review/session"
	"github.com/google/go-cmp/cmp"
)

// fakePlatform serves canned pull request data and records publishes.
type fakePlatform struct {
	info     review.PullRequestInfo
	changed  []review.ChangedFile
	contents []review.FileContent
	repo     map[string]string // path -> content at base

	posted      int
	postedRec   review.Recommendation
	publishErr  error
	publishResp *review.PublishResult
}

func (f *fakePlatform) PullRequest(context.Context) (*review.PullRequestInfo, error) {
	info := f.info
	return &info, nil
}

func (f *fakePlatform) ChangedFiles(context.Context) ([]review.ChangedFile, error) {
	return f.changed, nil
}

func (f *fakePlatform) ChangedFileContents(context.Context) ([]review.FileContent, error) {
	return f.contents, nil
}

func (f *fakePlatform) FileContent(_ context.Context, path, _ string) (string, error) {
	content, ok := f.repo[path]
	if !ok {
		return "", fmt.Errorf("404: %s not found", path)
	}
	return content, nil
}

func (f *fakePlatform) PostReview(_ context.Context, _ string, _ []review.Finding, rec review.Recommendation) (*review.PublishResult, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.posted++
	f.postedRec = rec
	if f.publishResp != nil {
		return f.publishResp, nil
	}
	return &review.PublishResult{Success: true, InlineComments: 2}, nil
}

// scriptedAnalyst returns the response whose key is a substring of the
// prompt, falling back to a default.
type scriptedAnalyst struct {
	responses map[string]string
	fallback  string
	err       error
	prompts   []string
}

func (s *scriptedAnalyst) Analyze(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return s.fallback, nil
}

func newPlatform() *fakePlatform {
	return &fakePlatform{
		info: review.PullRequestInfo{
			Title:      "Add payment validation",
			Author:     "octocat",
			Labels:     []string{"backend"},
			BaseBranch: "main",
			HeadBranch: "feature/validation",
			BaseSHA:    "abc123",
			HeadSHA:    "def456",
		},
		changed: []review.ChangedFile{
			{Filename: "pay.py", Additions: 30, Deletions: 5, Status: "modified"},
			{Filename: "pay_test.py", Additions: 12, Deletions: 0, Status: "added"},
			{Filename: "README.md", Additions: 2, Deletions: 1, Status: "modified"},
		},
		contents: []review.FileContent{
			{Filename: "pay.py", Content: "def charge():\n    pass\n", Status: "modified"},
			{Filename: "pay_test.py", Content: "def test_charge():\n    pass\n", Status: "added"},
			{Filename: "README.md", Content: "# Payments\n", Status: "modified"},
		},
		repo: map[string]string{
			"base.py": "class Base:\n    pass\n",
		},
	}
}

func TestAnalyzePRContext(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "analyze_pr_context", nil)
	if _, isErr := res["error"]; isErr {
		t.Fatalf("unexpected error result: %v", res)
	}

	pc := state.PRContext()
	if pc == nil {
		t.Fatal("PR context was not stored")
	}
	if pc.FileCount != 3 || pc.TotalAdditions != 44 || pc.TotalDeletions != 6 {
		t.Errorf("unexpected metrics: %+v", pc)
	}
	want := map[string]int{".py": 2, ".md": 1}
	if diff := cmp.Diff(want, pc.FileTypes); diff != "" {
		t.Errorf("unexpected file types (-want +got):\n%s", diff)
	}
	if pc.Description != "(no description)" {
		t.Errorf("empty description should be placeholdered, got %q", pc.Description)
	}

	// Re-running overwrites with fresh data rather than erroring.
	res = exec.Execute(context.Background(), "analyze_pr_context", nil)
	if _, isErr := res["error"]; isErr {
		t.Fatalf("second run errored: %v", res)
	}
}

func TestFetchChangedFilesFilter(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "fetch_changed_files", map[string]any{
		"file_types": []any{".py"},
	})
	if got := res["fetched_count"]; got != 2 {
		t.Fatalf("fetched_count = %v, want 2", got)
	}
	if diff := cmp.Diff([]string{"pay.py", "pay_test.py"}, state.ChangedFileNames()); diff != "" {
		t.Errorf("unexpected files (-want +got):\n%s", diff)
	}

	// Empty filter fetches everything; the set grows monotonically.
	res = exec.Execute(context.Background(), "fetch_changed_files", nil)
	if got := res["fetched_count"]; got != 3 {
		t.Fatalf("fetched_count = %v, want 3", got)
	}
	if state.ChangedFileCount() != 3 {
		t.Errorf("got %d files, want 3", state.ChangedFileCount())
	}
}

func TestFetchRelatedFilesPartialFailure(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "fetch_related_files", map[string]any{
		"file_paths": []any{"base.py", "missing.py"},
		"reason":     "need the base class",
	})
	if _, isErr := res["error"]; isErr {
		t.Fatalf("batch should not fail wholesale: %v", res)
	}

	fetched := res["fetched"].([]map[string]any)
	if len(fetched) != 2 {
		t.Fatalf("got %d entries, want 2", len(fetched))
	}
	if _, ok := fetched[0]["lines"]; !ok {
		t.Errorf("base.py should report line count: %v", fetched[0])
	}
	if _, ok := fetched[1]["error"]; !ok {
		t.Errorf("missing.py should report an error: %v", fetched[1])
	}

	if state.RelatedFileCount() != 1 {
		t.Errorf("only the successful fetch should be stored, got %d", state.RelatedFileCount())
	}

	// The stated reason lands in the audit trail before the fetch.
	trace := state.ReasoningTrace()
	if len(trace) == 0 || !strings.Contains(trace[0].Thought, "need the base class") {
		t.Errorf("reason missing from trace: %v", trace)
	}
}

func TestFetchRelatedFilesRequiresInputs(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	for name, args := range map[string]map[string]any{
		"missing paths":  {"reason": "r"},
		"empty paths":    {"file_paths": []any{}, "reason": "r"},
		"missing reason": {"file_paths": []any{"a.py"}},
	} {
		t.Run(name, func(t *testing.T) {
			res := exec.Execute(context.Background(), "fetch_related_files", args)
			if _, isErr := res["error"]; !isErr {
				t.Errorf("expected error result, got %v", res)
			}
		})
	}
}

func TestReviewCodeExtractsFindingsFromProse(t *testing.T) {
	state := session.New(10)
	state.AddChangedFile("pay.py", "def charge():\n    pass\n")

	analyst := &scriptedAnalyst{
		fallback: `Sure! Here are the findings:
[{"line": 1, "severity": "error", "category": "correctness", "message": "charge() does nothing", "suggestion": "implement it"}]
Let me know if you need anything else.`,
	}
	exec := executor.New(state, newPlatform(), analyst)

	res := exec.Execute(context.Background(), "review_code", map[string]any{
		"focus_areas": []any{"correctness"},
	})
	if got := res["findings_count"]; got != 1 {
		t.Fatalf("findings_count = %v, want 1: %v", got, res)
	}

	findings := state.Findings()
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	// The executor stamps the file; the model's output never names it.
	if findings[0].File != "pay.py" {
		t.Errorf("finding not stamped with file: %+v", findings[0])
	}
	if findings[0].Line == nil || *findings[0].Line != 1 {
		t.Errorf("unexpected line: %+v", findings[0])
	}
}

func TestReviewCodeParseFailureIsolatedPerFile(t *testing.T) {
	state := session.New(10)
	state.AddChangedFile("bad.py", "oops\n")
	state.AddChangedFile("good.py", "fine\n")

	analyst := &scriptedAnalyst{
		responses: map[string]string{
			"Code to Review: bad.py":  "I could not find any issues worth reporting here.",
			"Code to Review: good.py": `[{"severity": "warning", "category": "testing", "message": "no tests"}]`,
		},
	}
	exec := executor.New(state, newPlatform(), analyst)

	res := exec.Execute(context.Background(), "review_code", map[string]any{
		"focus_areas": []any{"testing"},
	})
	if _, isErr := res["error"]; isErr {
		t.Fatalf("parse failure must not fail the call: %v", res)
	}
	if got := res["findings_count"]; got != 1 {
		t.Errorf("findings_count = %v, want 1", got)
	}

	var traced bool
	for _, th := range state.ReasoningTrace() {
		if strings.Contains(th.Thought, "bad.py") {
			traced = true
		}
	}
	if !traced {
		t.Error("parse failure for bad.py should leave a trace entry")
	}
}

func TestReviewCodeSkipsUnfetchedFiles(t *testing.T) {
	state := session.New(10)
	analyst := &scriptedAnalyst{fallback: "[]"}
	exec := executor.New(state, newPlatform(), analyst)

	res := exec.Execute(context.Background(), "review_code", map[string]any{
		"files":       []any{"never_fetched.py"},
		"focus_areas": []any{"security"},
	})
	if got := res["findings_count"]; got != 0 {
		t.Errorf("findings_count = %v, want 0", got)
	}
	if len(analyst.prompts) != 0 {
		t.Errorf("analyst should not be called for unfetched files")
	}
}

func TestReviewCodeIncludesRules(t *testing.T) {
	state := session.New(10)
	state.AddChangedFile("a.py", "x = 1\n")
	analyst := &scriptedAnalyst{fallback: "[]"}
	exec := executor.New(state, newPlatform(), analyst,
		executor.WithRules(`{"style": {"max_line_length": 120}}`))

	res := exec.Execute(context.Background(), "review_code", map[string]any{
		"focus_areas": []any{"maintainability"},
	})
	if _, isErr := res["error"]; isErr {
		t.Fatalf("unexpected error result: %v", res)
	}
	if len(analyst.prompts) != 1 {
		t.Fatalf("got %d analyst calls, want 1", len(analyst.prompts))
	}
	if !strings.Contains(analyst.prompts[0], "max_line_length") {
		t.Error("review prompt should carry the configured rules")
	}
}

func TestReviewCodeRejectsUnknownFocusAreas(t *testing.T) {
	state := session.New(10)
	state.AddChangedFile("a.py", "x\n")
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "review_code", map[string]any{
		"focus_areas": []any{"vibes"},
	})
	if _, isErr := res["error"]; !isErr {
		t.Errorf("expected error result, got %v", res)
	}
}

func TestSelfCritiqueReplacesFindings(t *testing.T) {
	state := session.New(10)
	state.AppendFindings(
		review.Finding{File: "a.py", Severity: review.SeverityInfo, Category: "style", Message: "nit"},
		review.Finding{File: "a.py", Severity: review.SeverityError, Category: "security", Message: "injection"},
	)

	analyst := &scriptedAnalyst{
		fallback: `After evaluation:
{"filtered_findings": [{"file": "a.py", "severity": "error", "category": "security", "message": "injection"}], "removed_count": 1}`,
	}
	exec := executor.New(state, newPlatform(), analyst)

	res := exec.Execute(context.Background(), "self_critique", map[string]any{
		"criteria": "keep only real bugs",
	})
	if got := res["filtered_count"]; got != 1 {
		t.Fatalf("filtered_count = %v, want 1: %v", got, res)
	}
	if got := res["removed_count"]; got != 1 {
		t.Errorf("removed_count = %v, want 1", got)
	}

	findings := state.Findings()
	if len(findings) != 1 || findings[0].Message != "injection" {
		t.Errorf("unexpected findings after critique: %+v", findings)
	}
}

func TestSelfCritiqueFailureKeepsFindings(t *testing.T) {
	state := session.New(10)
	original := []review.Finding{
		{File: "a.py", Severity: review.SeverityWarning, Message: "w1"},
		{File: "b.py", Severity: review.SeverityError, Message: "e1"},
	}
	state.AppendFindings(original...)

	analyst := &scriptedAnalyst{fallback: "The findings all look reasonable to me."}
	exec := executor.New(state, newPlatform(), analyst)

	res := exec.Execute(context.Background(), "self_critique", map[string]any{
		"criteria": "anything",
	})
	if got := res["critique_failed"]; got != true {
		t.Errorf("critique_failed = %v, want true", got)
	}
	if diff := cmp.Diff(original, state.Findings()); diff != "" {
		t.Errorf("critique failure discarded findings (-want +got):\n%s", diff)
	}
}

func TestPostReviewPublishesOnce(t *testing.T) {
	state := session.New(10)
	state.AppendFindings(review.Finding{File: "a.py", Severity: review.SeverityError, Message: "bug"})
	platform := newPlatform()
	exec := executor.New(state, platform, &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "post_review", map[string]any{
		"summary":        "Found one real bug.",
		"recommendation": "request_changes",
	})
	if got := res["success"]; got != true {
		t.Fatalf("success = %v: %v", got, res)
	}
	if !state.Published() {
		t.Error("state should record the publish")
	}
	if platform.postedRec != review.RecommendRequestChanges {
		t.Errorf("recommendation = %v", platform.postedRec)
	}

	// A second publish is rejected with an error result the oracle sees.
	res = exec.Execute(context.Background(), "post_review", map[string]any{
		"summary": "again",
	})
	if _, isErr := res["error"]; !isErr {
		t.Fatalf("duplicate publish should error: %v", res)
	}
	if platform.posted != 1 {
		t.Errorf("platform saw %d publishes, want 1", platform.posted)
	}
}

func TestPostReviewPlatformErrorIsNonFatal(t *testing.T) {
	state := session.New(10)
	platform := newPlatform()
	platform.publishErr = errors.New("422 Unprocessable Entity")
	exec := executor.New(state, platform, &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "post_review", map[string]any{
		"summary": "s",
	})
	if _, isErr := res["error"]; !isErr {
		t.Fatalf("expected error result, got %v", res)
	}
	if state.Published() {
		t.Error("failed publish must not mark the session published")
	}
}

func TestFinish(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "finish", map[string]any{
		"reason": "review posted",
	})
	if got := res["status"]; got != "finishing" {
		t.Errorf("status = %v", got)
	}

	res = exec.Execute(context.Background(), "finish", nil)
	if _, isErr := res["error"]; !isErr {
		t.Errorf("finish without reason should error: %v", res)
	}
}

func TestUnknownTool(t *testing.T) {
	state := session.New(10)
	exec := executor.New(state, newPlatform(), &scriptedAnalyst{})

	res := exec.Execute(context.Background(), "delete_repository", nil)
	errMsg, isErr := res["error"].(string)
	if !isErr || !strings.Contains(errMsg, "delete_repository") {
		t.Errorf("expected error naming the tool, got %v", res)
	}
}
