/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubclient

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chainguard.dev/reviewagent/review"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// PostReview publishes the review. Findings on lines present in the diff
// become inline comments; everything is summarized in the review body.
// When the structured review cannot be created (stale diffs and
// permission quirks make this a routine failure), the body is posted as
// a plain issue comment instead and the result is flagged as a fallback.
func (c *Client) PostReview(ctx context.Context, summary string, findings []review.Finding, rec review.Recommendation) (*review.PublishResult, error) {
	log := clog.FromContext(ctx)

	files, err := c.ChangedFiles(ctx)
	if err != nil {
		return nil, err
	}

	body := formatReviewBody(summary, findings)
	comments := buildInlineComments(findings, files)

	reviewReq := &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr(reviewEvent(findings, rec)),
	}
	if len(comments) > 0 {
		reviewReq.Comments = comments
	}

	if _, _, err := c.gh.PullRequests.CreateReview(ctx, c.owner, c.repo, c.number, reviewReq); err != nil {
		log.With("error", err).Warn("Could not create PR review, posting as comment instead")
		comment := &github.IssueComment{Body: github.Ptr(body)}
		if _, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, c.number, comment); err != nil {
			return nil, fmt.Errorf("posting fallback comment: %w", err)
		}
		return &review.PublishResult{Success: true, Fallback: true}, nil
	}

	return &review.PublishResult{Success: true, InlineComments: len(comments)}, nil
}

// reviewEvent maps the recommendation onto a GitHub review event. Any
// error-severity finding forces REQUEST_CHANGES regardless of the
// stated recommendation.
func reviewEvent(findings []review.Finding, rec review.Recommendation) string {
	for _, f := range findings {
		if f.Severity == review.SeverityError {
			return "REQUEST_CHANGES"
		}
	}
	switch rec {
	case review.RecommendApprove:
		return "APPROVE"
	case review.RecommendRequestChanges:
		return "REQUEST_CHANGES"
	default:
		return "COMMENT"
	}
}

var severityIcons = map[review.Severity]string{
	review.SeverityError:   "❌",
	review.SeverityWarning: "⚠️",
	review.SeverityInfo:    "ℹ️",
}

// formatReviewBody renders the review body as GitHub markdown: severity
// badge counts, then findings grouped by file.
func formatReviewBody(summary string, findings []review.Finding) string {
	var sb strings.Builder
	sb.WriteString("## 🤖 Code Review Agent Report\n\n")

	if summary != "" {
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	var errors, warnings, infos int
	for _, f := range findings {
		switch f.Severity {
		case review.SeverityError:
			errors++
		case review.SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	switch {
	case errors == 0 && warnings == 0 && infos == 0:
		sb.WriteString("✅ **No issues found!**\n")
	default:
		if errors > 0 {
			fmt.Fprintf(&sb, "❌ **%d Error(s)** ", errors)
		}
		if warnings > 0 {
			fmt.Fprintf(&sb, "⚠️ **%d Warning(s)** ", warnings)
		}
		if infos > 0 {
			fmt.Fprintf(&sb, "ℹ️ **%d Info** ", infos)
		}
		sb.WriteString("\n")
	}

	byFile := make(map[string][]review.Finding)
	var fileOrder []string
	for _, f := range findings {
		if _, seen := byFile[f.File]; !seen {
			fileOrder = append(fileOrder, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}

	severityRank := map[review.Severity]int{
		review.SeverityError:   0,
		review.SeverityWarning: 1,
		review.SeverityInfo:    2,
	}

	for _, filename := range fileOrder {
		fmt.Fprintf(&sb, "\n### 📄 `%s`\n\n", filename)

		fileFindings := byFile[filename]
		sort.SliceStable(fileFindings, func(i, j int) bool {
			return severityRank[fileFindings[i].Severity] < severityRank[fileFindings[j].Severity]
		})

		for _, f := range fileFindings {
			icon := severityIcons[f.Severity]
			if icon == "" {
				icon = "•"
			}
			loc := ""
			if f.Line != nil {
				loc = fmt.Sprintf("**Line %d:** ", *f.Line)
			}
			fmt.Fprintf(&sb, "- %s `%s` %s%s\n", icon, f.Category, loc, f.Message)
			if f.Suggestion != "" {
				fmt.Fprintf(&sb, "  - 💡 _%s_\n", f.Suggestion)
			}
		}
	}

	sb.WriteString("\n---\n_Generated by Code Review Agent_")
	return sb.String()
}

// buildInlineComments converts findings into draft review comments for
// lines that are actually part of the diff; everything else stays in the
// review body only.
func buildInlineComments(findings []review.Finding, files []review.ChangedFile) []*github.DraftReviewComment {
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Filename] = f.Patch
	}
	positions := diffPositions(patches)

	var comments []*github.DraftReviewComment
	for _, f := range findings {
		if f.Line == nil {
			continue
		}
		filename, ok := matchFile(f.File, patches)
		if !ok {
			continue
		}
		if _, commentable := positions[filename][*f.Line]; !commentable {
			continue
		}

		icon := severityIcons[f.Severity]
		if icon == "" {
			icon = "•"
		}
		body := fmt.Sprintf("%s **%s**: %s", icon, strings.ToUpper(f.Category), f.Message)
		if f.Suggestion != "" {
			body += "\n\n💡 " + f.Suggestion
		}

		comments = append(comments, &github.DraftReviewComment{
			Path: github.Ptr(filename),
			Line: github.Ptr(*f.Line),
			Side: github.Ptr("RIGHT"),
			Body: github.Ptr(body),
		})
	}
	return comments
}

// matchFile resolves a finding's file against the PR's changed file
// paths, tolerating leading "./" and bare basenames.
func matchFile(name string, files map[string]string) (string, bool) {
	if _, ok := files[name]; ok {
		return name, true
	}
	trimmed := strings.TrimPrefix(name, "./")
	if _, ok := files[trimmed]; ok {
		return trimmed, true
	}
	candidates := make([]string, 0, len(files))
	for candidate := range files {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)
	for _, candidate := range candidates {
		if strings.HasSuffix(candidate, "/"+trimmed) {
			return candidate, true
		}
	}
	return "", false
}
