/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package review

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// NormalizeSeverity maps arbitrary model output onto the severity enum.
// Unrecognized values degrade to info rather than being rejected.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityError, SeverityWarning, SeverityInfo:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// Recommendation is the overall review verdict.
type Recommendation string

const (
	RecommendApprove        Recommendation = "approve"
	RecommendRequestChanges Recommendation = "request_changes"
	RecommendComment        Recommendation = "comment"
)

// NormalizeRecommendation maps arbitrary model output onto the
// recommendation enum, defaulting to comment.
func NormalizeRecommendation(s string) Recommendation {
	switch Recommendation(s) {
	case RecommendApprove, RecommendRequestChanges, RecommendComment:
		return Recommendation(s)
	default:
		return RecommendComment
	}
}

// FocusAreas enumerates the review aspects the review_code tool accepts.
func FocusAreas() []string {
	return []string{
		"security",
		"performance",
		"correctness",
		"maintainability",
		"documentation",
		"testing",
		"error_handling",
	}
}

// Finding is a single review observation on a file.
// Line is nil when the finding applies to the file as a whole.
type Finding struct {
	File       string   `json:"file"`
	Line       *int     `json:"line,omitempty"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// PullRequestInfo is the raw pull request metadata reported by the
// hosting platform.
type PullRequestInfo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Labels      []string `json:"labels"`
	BaseBranch  string   `json:"base_branch"`
	HeadBranch  string   `json:"head_branch"`
	BaseSHA     string   `json:"base_sha"`
	HeadSHA     string   `json:"head_sha"`
	Draft       bool     `json:"is_draft"`
}

// PRContext is a structured snapshot of pull request metadata, computed
// once by the analyze_pr_context tool and read by later tool calls.
type PRContext struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Author         string         `json:"author"`
	Labels         []string       `json:"labels"`
	BaseBranch     string         `json:"base_branch"`
	HeadBranch     string         `json:"head_branch"`
	BaseSHA        string         `json:"base_sha"`
	HeadSHA        string         `json:"head_sha"`
	FileCount      int            `json:"file_count"`
	FileTypes      map[string]int `json:"file_types"`
	TotalAdditions int            `json:"total_additions"`
	TotalDeletions int            `json:"total_deletions"`
	FilesChanged   []string       `json:"files_changed"`
	Draft          bool           `json:"is_draft"`
}

// ChangedFile describes one file changed in a pull request, without content.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
}

// FileContent is a changed file together with its full text at the PR head.
type FileContent struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Status   string `json:"status"`
}

// PublishResult reports the outcome of posting a review to the hosting
// platform. Fallback is set when the structured review could not be
// created and the body was posted as a general comment instead.
type PublishResult struct {
	Success        bool `json:"success"`
	InlineComments int  `json:"inline_comments"`
	Fallback       bool `json:"fallback,omitempty"`
	DryRun         bool `json:"dry_run,omitempty"`
}
