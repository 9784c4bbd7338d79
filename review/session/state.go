/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package session holds the mutable state of one review session: what
// the agent has learned about the pull request so far and what it has
// produced. A State is owned by exactly one session and is mutated only
// by the tool executor; nothing here persists past the session.
package session

import (
	"maps"
	"slices"

	"chainguard.dev/reviewagent/review"
)

// DefaultMaxIterations bounds the reasoning loop when no explicit budget
// is configured.
const DefaultMaxIterations = 10

// Thought is one reasoning-trace entry, tagged with the iteration it
// occurred in. The trace is diagnostic only; the loop never reads it.
type Thought struct {
	Iteration int    `json:"iteration"`
	Thought   string `json:"thought"`
}

// Summary is the session termination record, suitable for CLI or log
// consumption.
type Summary struct {
	Iterations      int    `json:"iterations_used"`
	FilesReviewed   int    `json:"files_reviewed_count"`
	RelatedFiles    int    `json:"related_files_count"`
	FinalFindings   int    `json:"final_findings_count"`
	Published       bool   `json:"published"`
	PublishFallback bool   `json:"publish_fallback,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// State accumulates everything a review session learns across loop
// iterations. It is not safe for concurrent use; the driver executes
// tool calls sequentially by design.
type State struct {
	prContext     *review.PRContext
	changedFiles  map[string]string
	relatedFiles  map[string]string
	findings      []review.Finding
	trace         []Thought
	iteration     int
	maxIterations int
	published     bool
	fallback      bool
}

// New creates session state with the given iteration budget.
// A non-positive budget selects DefaultMaxIterations.
func New(maxIterations int) *State {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &State{
		changedFiles:  make(map[string]string),
		relatedFiles:  make(map[string]string),
		maxIterations: maxIterations,
	}
}

// SetPRContext stores a fresh context snapshot, overwriting any prior one.
func (s *State) SetPRContext(ctx *review.PRContext) {
	s.prContext = ctx
}

// PRContext returns the stored context snapshot, or nil before
// analyze_pr_context has run.
func (s *State) PRContext() *review.PRContext {
	return s.prContext
}

// AddChangedFile records the content of a file changed in the PR.
// The changed-file set grows monotonically within a session.
func (s *State) AddChangedFile(path, content string) {
	s.changedFiles[path] = content
}

// ChangedFile returns a changed file's content.
func (s *State) ChangedFile(path string) (string, bool) {
	content, ok := s.changedFiles[path]
	return content, ok
}

// ChangedFileNames returns the sorted paths of all fetched changed files.
func (s *State) ChangedFileNames() []string {
	return slices.Sorted(maps.Keys(s.changedFiles))
}

// ChangedFileCount returns how many changed files have been fetched.
func (s *State) ChangedFileCount() int {
	return len(s.changedFiles)
}

// AddRelatedFile records a file fetched for cross-file context.
func (s *State) AddRelatedFile(path, content string) {
	s.relatedFiles[path] = content
}

// RelatedFiles returns a copy of the related-file map.
func (s *State) RelatedFiles() map[string]string {
	return maps.Clone(s.relatedFiles)
}

// RelatedFileCount returns how many related files have been fetched.
func (s *State) RelatedFileCount() int {
	return len(s.relatedFiles)
}

// AppendFindings appends review findings to the accumulated set.
func (s *State) AppendFindings(findings ...review.Finding) {
	s.findings = append(s.findings, findings...)
}

// ReplaceFindings swaps the accumulated findings wholesale, as the
// self_critique tool does after filtering.
func (s *State) ReplaceFindings(findings []review.Finding) {
	s.findings = slices.Clone(findings)
}

// Findings returns a copy of the current findings, in order.
func (s *State) Findings() []review.Finding {
	return slices.Clone(s.findings)
}

// AddReasoning appends a trace entry tagged with the current iteration.
func (s *State) AddReasoning(thought string) {
	s.trace = append(s.trace, Thought{Iteration: s.iteration, Thought: thought})
}

// ReasoningTrace returns a copy of the trace entries, in order.
func (s *State) ReasoningTrace() []Thought {
	return slices.Clone(s.trace)
}

// Iteration returns the current iteration count.
func (s *State) Iteration() int {
	return s.iteration
}

// NextIteration increments the iteration counter and returns it.
// Only the driver calls this, once per loop pass.
func (s *State) NextIteration() int {
	s.iteration++
	return s.iteration
}

// MaxIterations returns the iteration budget.
func (s *State) MaxIterations() int {
	return s.maxIterations
}

// MarkPublished records that a review was published. fallback indicates
// the degraded general-comment path was used.
func (s *State) MarkPublished(fallback bool) {
	s.published = true
	s.fallback = fallback
}

// Published reports whether a review has been posted this session.
func (s *State) Published() bool {
	return s.published
}

// Summarize produces the session termination record.
func (s *State) Summarize(reason string) Summary {
	return Summary{
		Iterations:      s.iteration,
		FilesReviewed:   len(s.changedFiles),
		RelatedFiles:    len(s.relatedFiles),
		FinalFindings:   len(s.findings),
		Published:       s.published,
		PublishFallback: s.fallback,
		Reason:          reason,
	}
}
