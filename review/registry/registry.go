/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package registry declares the fixed catalog of tools the decision
// oracle may invoke. The catalog is the oracle's entire action
// vocabulary: it cannot invent operations, and the executor dispatches
// on the closed Name enumeration with a runtime fallback for anything
// outside it.
package registry

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/reviewagent/review"
)

// Name identifies a tool in the catalog.
type Name string

const (
	AnalyzePRContext  Name = "analyze_pr_context"
	FetchChangedFiles Name = "fetch_changed_files"
	FetchRelatedFiles Name = "fetch_related_files"
	ReviewCode        Name = "review_code"
	SelfCritique      Name = "self_critique"
	PostReview        Name = "post_review"
	Finish            Name = "finish"
)

// AnalyzeContextInput takes no parameters; the tool recomputes the PR
// snapshot from platform metadata every time it runs.
type AnalyzeContextInput struct{}

// FetchChangedFilesInput filters which changed files to fetch.
type FetchChangedFilesInput struct {
	FileTypes []string `json:"file_types,omitempty" jsonschema:"description=File extensions to fetch (e.g. ['.py'; '.go']). Empty means all files."`
}

// FetchRelatedFilesInput names repository files to fetch for cross-file
// context, with the agent's stated reason recorded for audit.
type FetchRelatedFilesInput struct {
	FilePaths []string `json:"file_paths" jsonschema:"required,description=Paths to fetch from the repository at the PR base revision"`
	Reason    string   `json:"reason" jsonschema:"required,description=Why these files are needed for context"`
}

// ReviewCodeInput scopes one analysis pass over fetched files.
type ReviewCodeInput struct {
	Files      []string `json:"files,omitempty" jsonschema:"description=Filenames to review; defaults to every fetched changed file"`
	FocusAreas []string `json:"focus_areas" jsonschema:"required,enum=security,enum=performance,enum=correctness,enum=maintainability,enum=documentation,enum=testing,enum=error_handling,description=What aspects to focus on in this review"`
	Context    string   `json:"context,omitempty" jsonschema:"description=Additional context about what this code does and why"`
}

// SelfCritiqueInput asks the oracle to filter the accumulated findings.
type SelfCritiqueInput struct {
	Findings []review.Finding `json:"findings,omitempty" jsonschema:"description=The findings to critique; defaults to the current accumulated findings"`
	Criteria string           `json:"criteria" jsonschema:"required,description=What makes a good finding for this PR"`
}

// PostReviewInput publishes the final review.
type PostReviewInput struct {
	Summary        string           `json:"summary" jsonschema:"required,description=Overall summary of the review"`
	Findings       []review.Finding `json:"findings,omitempty" jsonschema:"description=Final list of findings to post; defaults to the current accumulated findings"`
	Recommendation string           `json:"recommendation,omitempty" jsonschema:"enum=approve,enum=request_changes,enum=comment,description=Overall recommendation"`
}

// FinishInput ends the session.
type FinishInput struct {
	Reason string `json:"reason" jsonschema:"required,description=Why the review is complete"`
}

// Definition describes one catalog entry: the tool's name, its
// natural-language contract, and a typed input struct from which the
// JSON schema is derived.
type Definition struct {
	Name        Name
	Description string
	Input       any
}

// InputSchema reflects the typed input struct into the properties map
// and required list expected by tool-use APIs.
func (d Definition) InputSchema() (properties map[string]any, required []string, err error) {
	raw, err := json.Marshal(Reflect(d.Input))
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling schema for %s: %w", d.Name, err)
	}
	var envelope struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decoding schema for %s: %w", d.Name, err)
	}
	if envelope.Properties == nil {
		envelope.Properties = map[string]any{}
	}
	return envelope.Properties, envelope.Required, nil
}

// Catalog returns the fixed tool catalog, in presentation order.
func Catalog() []Definition {
	return []Definition{
		{
			Name: AnalyzePRContext,
			Description: "Analyze the PR metadata to understand what kind of changes are being made. " +
				"Returns PR title, description, labels, file types changed, and size metrics. " +
				"Use this first to plan your review strategy.",
			Input: AnalyzeContextInput{},
		},
		{
			Name:        FetchChangedFiles,
			Description: "Fetch the content of files changed in the PR. Can filter by file type.",
			Input:       FetchChangedFilesInput{},
		},
		{
			Name: FetchRelatedFiles,
			Description: "Fetch files that are related to the changed files but not part of the PR. " +
				"Useful for understanding context like base classes, imports, or test files.",
			Input: FetchRelatedFilesInput{},
		},
		{
			Name:        ReviewCode,
			Description: "Perform a code review on specific files with a given focus area. Returns detailed findings.",
			Input:       ReviewCodeInput{},
		},
		{
			Name: SelfCritique,
			Description: "Review your own findings and filter out noise. Remove obvious suggestions, duplicates, " +
				"and low-value feedback. Prioritize actionable, specific findings.",
			Input: SelfCritiqueInput{},
		},
		{
			Name:        PostReview,
			Description: "Post the final review to the hosting platform. Only call this when you're satisfied with the findings.",
			Input:       PostReviewInput{},
		},
		{
			Name:        Finish,
			Description: "End the review process. Call this when the review has been posted or if there's nothing to review.",
			Input:       FinishInput{},
		},
	}
}

// Known reports whether name is part of the catalog.
func Known(name string) bool {
	switch Name(name) {
	case AnalyzePRContext, FetchChangedFiles, FetchRelatedFiles,
		ReviewCode, SelfCritique, PostReview, Finish:
		return true
	default:
		return false
	}
}
