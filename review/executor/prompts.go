/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/prompt"
)

// relatedFileExcerptLimit caps how much of each related file is folded
// into a review prompt, so prompts stay bounded as context accumulates.
const relatedFileExcerptLimit = 2000

const reviewTemplate = `You are an expert code reviewer. Review this code with a focus on: {{focus_areas}}.

## Context
{{context}}

## PR Information
{{pr_context}}

## Code to Review: {{filename}}
` + "```" + `
{{code}}
` + "```" + `
{{related_context}}

## Instructions
1. Focus specifically on: {{focus_areas}}
2. Only report issues that are genuinely important
3. Be specific with line numbers
4. Provide actionable suggestions

## Output Format
Return a JSON array of findings:
[
    {
        "line": <line_number or null>,
        "severity": "<error|warning|info>",
        "category": "<focus area>",
        "message": "Clear description of the issue",
        "suggestion": "How to fix it"
    }
]

Only output the JSON array, nothing else.`

const critiqueTemplate = `You are reviewing code review feedback before it's posted.
Filter out low-quality findings and keep only the valuable ones.

## Criteria for good findings:
{{criteria}}

## Findings to evaluate:
{{findings}}

## Instructions:
1. Remove obvious or trivial suggestions
2. Remove duplicates or overlapping findings
3. Remove findings that are stylistic preferences rather than real issues
4. Keep findings that identify real bugs, security issues, or significant improvements
5. Prioritize actionable, specific feedback

## Output Format:
Return a JSON object:
{
    "filtered_findings": [...],
    "removed_count": <number of findings removed>
}`

// buildReviewPrompt composes the per-file analysis prompt from the
// session's accumulated context.
func (e *Executor) buildReviewPrompt(filename, code string, focusAreas []string, extraContext string) (string, error) {
	tmpl, err := prompt.New(reviewTemplate)
	if err != nil {
		return "", err
	}

	tmpl, err = tmpl.Bind("focus_areas", strings.Join(focusAreas, ", "))
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.Bind("context", e.reviewContext(extraContext))
	if err != nil {
		return "", err
	}

	if pc := e.state.PRContext(); pc != nil {
		tmpl, err = tmpl.BindJSON("pr_context", pc)
	} else {
		tmpl, err = tmpl.Bind("pr_context", "No PR context available")
	}
	if err != nil {
		return "", err
	}

	tmpl, err = tmpl.Bind("filename", filename)
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.Bind("code", code)
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.Bind("related_context", relatedContext(e.state.RelatedFiles()))
	if err != nil {
		return "", err
	}

	return tmpl.Render()
}

// reviewContext combines the oracle-supplied context with any configured
// review rules.
func (e *Executor) reviewContext(extraContext string) string {
	var parts []string
	if extraContext != "" {
		parts = append(parts, extraContext)
	}
	if e.rules != "" {
		parts = append(parts, "Project review rules:\n"+e.rules)
	}
	if len(parts) == 0 {
		return "(none provided)"
	}
	return strings.Join(parts, "\n\n")
}

// relatedContext renders bounded excerpts of every fetched related file,
// in path order for prompt stability.
func relatedContext(related map[string]string) string {
	if len(related) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, path := range slices.Sorted(maps.Keys(related)) {
		content := related[path]
		if len(content) > relatedFileExcerptLimit {
			content = content[:relatedFileExcerptLimit]
		}
		fmt.Fprintf(&sb, "\n\n### Related file: %s\n```\n%s\n```", path, content)
	}
	return sb.String()
}

// buildCritiquePrompt composes the self-critique prompt.
func buildCritiquePrompt(findings []review.Finding, criteria string) (string, error) {
	tmpl, err := prompt.New(critiqueTemplate)
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.Bind("criteria", criteria)
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.BindJSON("findings", findings)
	if err != nil {
		return "", err
	}
	return tmpl.Render()
}
