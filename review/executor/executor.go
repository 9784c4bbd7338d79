/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor performs tool calls on behalf of the reasoning loop.
// It is the only component that mutates session state, and every failure
// at the tool boundary becomes a structured error result the decision
// oracle can observe, never a Go error that aborts the session.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/metrics"
	"chainguard.dev/reviewagent/review/oracle"
	"chainguard.dev/reviewagent/review/params"
	"chainguard.dev/reviewagent/review/registry"
	"chainguard.dev/reviewagent/review/result"
	"chainguard.dev/reviewagent/review/session"
	"github.com/chainguard-dev/clog"
)

// Platform is the hosting-platform surface the executor needs. It is
// deliberately narrow: metadata, file contents, and a single publish
// entry point.
type Platform interface {
	// PullRequest returns the pull request's metadata.
	PullRequest(ctx context.Context) (*review.PullRequestInfo, error)
	// ChangedFiles returns metadata for every file changed in the PR.
	ChangedFiles(ctx context.Context) ([]review.ChangedFile, error)
	// ChangedFileContents returns every changed file with its content at
	// the PR head.
	ChangedFileContents(ctx context.Context) ([]review.FileContent, error)
	// FileContent returns one repository file's content at the given ref.
	FileContent(ctx context.Context, path, ref string) (string, error)
	// PostReview publishes a review.
	PostReview(ctx context.Context, summary string, findings []review.Finding, rec review.Recommendation) (*review.PublishResult, error)
}

// Executor dispatches tool calls against session state, the hosting
// platform, and the analysis oracle.
type Executor struct {
	state    *session.State
	platform Platform
	analyst  oracle.Analyst
	rules    string
	genai    *metrics.GenAI
}

// Option configures an Executor.
type Option func(*Executor)

// WithRules folds rendered review rules into every review_code prompt.
func WithRules(rendered string) Option {
	return func(e *Executor) { e.rules = rendered }
}

// New builds an executor bound to one session's state.
func New(state *session.State, platform Platform, analyst oracle.Analyst, opts ...Option) *Executor {
	e := &Executor{
		state:    state,
		platform: platform,
		analyst:  analyst,
		genai:    metrics.NewGenAI("chainguard.ai.reviewagent"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one tool call and returns its JSON-serializable result.
// Unknown tool names and argument shape mismatches produce error results
// for the oracle to self-correct on; nothing here panics or propagates.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	log := clog.FromContext(ctx).With("tool", name)
	log.Info("Executing tool call")

	var res map[string]any
	switch registry.Name(name) {
	case registry.AnalyzePRContext:
		res = e.analyzePRContext(ctx)
	case registry.FetchChangedFiles:
		res = e.fetchChangedFiles(ctx, args)
	case registry.FetchRelatedFiles:
		res = e.fetchRelatedFiles(ctx, args)
	case registry.ReviewCode:
		res = e.reviewCode(ctx, args)
	case registry.SelfCritique:
		res = e.selfCritique(ctx, args)
	case registry.PostReview:
		res = e.postReview(ctx, args)
	case registry.Finish:
		res = e.finish(ctx, args)
	default:
		log.Error("Unknown tool requested")
		res = params.Error("unknown tool: %q", name)
	}

	_, isError := res["error"]
	e.genai.RecordToolCall(ctx, name, isError)
	return res
}

// analyzePRContext computes a fresh metadata snapshot and stores it.
// Re-running overwrites the previous snapshot.
func (e *Executor) analyzePRContext(ctx context.Context) map[string]any {
	info, err := e.platform.PullRequest(ctx)
	if err != nil {
		return params.Error("fetching PR metadata: %v", err)
	}
	files, err := e.platform.ChangedFiles(ctx)
	if err != nil {
		return params.Error("fetching PR file list: %v", err)
	}

	prContext := buildPRContext(info, files)
	e.state.SetPRContext(prContext)

	snapshot, err := toMap(prContext)
	if err != nil {
		return params.Error("encoding PR context: %v", err)
	}
	return snapshot
}

// buildPRContext derives the context snapshot from raw platform data.
func buildPRContext(info *review.PullRequestInfo, files []review.ChangedFile) *review.PRContext {
	fileTypes := make(map[string]int)
	var additions, deletions int
	names := make([]string, 0, len(files))
	for _, f := range files {
		ext := filepath.Ext(f.Filename)
		if ext == "" {
			ext = "no_extension"
		}
		fileTypes[ext]++
		additions += f.Additions
		deletions += f.Deletions
		names = append(names, f.Filename)
	}

	description := info.Description
	if description == "" {
		description = "(no description)"
	}

	return &review.PRContext{
		Title:          info.Title,
		Description:    description,
		Author:         info.Author,
		Labels:         info.Labels,
		BaseBranch:     info.BaseBranch,
		HeadBranch:     info.HeadBranch,
		BaseSHA:        info.BaseSHA,
		HeadSHA:        info.HeadSHA,
		FileCount:      len(files),
		FileTypes:      fileTypes,
		TotalAdditions: additions,
		TotalDeletions: deletions,
		FilesChanged:   names,
		Draft:          info.Draft,
	}
}

// fetchChangedFiles fetches changed file contents, optionally filtered
// by extension, and merges them into session state. The result reports
// line counts rather than content to bound payload size.
func (e *Executor) fetchChangedFiles(ctx context.Context, args map[string]any) map[string]any {
	extensions, err := params.OptionalStringSlice(args, "file_types")
	if err != nil {
		return params.Error("%v", err)
	}

	files, err := e.platform.ChangedFileContents(ctx)
	if err != nil {
		return params.Error("fetching changed files: %v", err)
	}

	var fetched []map[string]any
	for _, f := range files {
		if len(extensions) > 0 && !slices.Contains(extensions, filepath.Ext(f.Filename)) {
			continue
		}
		e.state.AddChangedFile(f.Filename, f.Content)
		fetched = append(fetched, map[string]any{
			"filename": f.Filename,
			"lines":    countLines(f.Content),
			"status":   f.Status,
		})
	}

	return map[string]any{
		"fetched_count": len(fetched),
		"files":         fetched,
	}
}

// fetchRelatedFiles fetches repository files at the PR base revision for
// cross-file context. Per-path failures are reported individually and do
// not fail the batch.
func (e *Executor) fetchRelatedFiles(ctx context.Context, args map[string]any) map[string]any {
	paths, err := params.StringSlice(args, "file_paths")
	if err != nil {
		return params.Error("%v", err)
	}
	if len(paths) == 0 {
		return params.Error("file_paths must not be empty")
	}
	reason, err := params.Extract[string](args, "reason")
	if err != nil {
		return params.Error("%v", err)
	}

	// The stated reason is part of the audit trail.
	e.state.AddReasoning("Fetching related files: " + reason)

	baseRef := ""
	if pc := e.state.PRContext(); pc != nil {
		baseRef = pc.BaseSHA
	} else if info, err := e.platform.PullRequest(ctx); err == nil {
		baseRef = info.BaseSHA
	}

	var fetched []map[string]any
	for _, path := range paths {
		content, err := e.platform.FileContent(ctx, path, baseRef)
		if err != nil {
			fetched = append(fetched, map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		e.state.AddRelatedFile(path, content)
		fetched = append(fetched, map[string]any{
			"path":  path,
			"lines": countLines(content),
		})
	}

	return map[string]any{"fetched": fetched}
}

// reviewCode runs one analysis pass per file, extracting a findings
// array from each response. A parse failure yields zero findings for
// that file and a reasoning-trace entry; remaining files still run.
func (e *Executor) reviewCode(ctx context.Context, args map[string]any) map[string]any {
	files, err := params.OptionalStringSlice(args, "files")
	if err != nil {
		return params.Error("%v", err)
	}
	if len(files) == 0 {
		files = e.state.ChangedFileNames()
	}
	focusAreas, err := params.StringSlice(args, "focus_areas")
	if err != nil {
		return params.Error("%v", err)
	}
	focusAreas = normalizeFocusAreas(focusAreas)
	if len(focusAreas) == 0 {
		return params.Error("focus_areas must name at least one of: %s", strings.Join(review.FocusAreas(), ", "))
	}
	extraContext, err := params.ExtractOptional(args, "context", "")
	if err != nil {
		return params.Error("%v", err)
	}

	log := clog.FromContext(ctx)
	var newFindings []review.Finding
	for _, filename := range files {
		code, ok := e.state.ChangedFile(filename)
		if !ok {
			continue
		}

		prompt, err := e.buildReviewPrompt(filename, code, focusAreas, extraContext)
		if err != nil {
			return params.Error("building review prompt for %s: %v", filename, err)
		}

		response, err := e.analyst.Analyze(ctx, prompt)
		if err != nil {
			e.state.AddReasoning(fmt.Sprintf("Error reviewing %s: %v", filename, err))
			log.With("file", filename).With("error", err).Warn("Analysis call failed")
			continue
		}

		findings, err := result.ExtractArray[review.Finding](response)
		if err != nil {
			e.state.AddReasoning(fmt.Sprintf("Error parsing review for %s: %v", filename, err))
			log.With("file", filename).With("error", err).Warn("Could not parse findings from response")
			continue
		}

		for i := range findings {
			findings[i].File = filename
			findings[i].Severity = review.NormalizeSeverity(string(findings[i].Severity))
		}
		newFindings = append(newFindings, findings...)
	}

	e.state.AppendFindings(newFindings...)

	encoded, err := toAnySlice(newFindings)
	if err != nil {
		return params.Error("encoding findings: %v", err)
	}
	return map[string]any{
		"findings_count": len(newFindings),
		"findings":       encoded,
	}
}

// selfCritique asks the oracle to filter the findings. When the response
// cannot be parsed the original findings are kept unchanged; critique
// failure never discards findings.
func (e *Executor) selfCritique(ctx context.Context, args map[string]any) map[string]any {
	criteria, err := params.Extract[string](args, "criteria")
	if err != nil {
		return params.Error("%v", err)
	}

	findings := e.state.Findings()
	if raw, ok := args["findings"]; ok {
		supplied, err := decodeFindings(raw)
		if err != nil {
			return params.Error("decoding findings parameter: %v", err)
		}
		findings = supplied
	}
	if len(findings) == 0 {
		return map[string]any{
			"filtered_count": 0,
			"removed_count":  0,
		}
	}

	prompt, err := buildCritiquePrompt(findings, criteria)
	if err != nil {
		return params.Error("building critique prompt: %v", err)
	}

	response, err := e.analyst.Analyze(ctx, prompt)
	if err != nil {
		e.state.AddReasoning(fmt.Sprintf("Error in self-critique: %v", err))
		return map[string]any{
			"critique_failed": true,
			"filtered_count":  len(findings),
		}
	}

	type critiqueResult struct {
		FilteredFindings []review.Finding `json:"filtered_findings"`
	}
	critique, err := result.ExtractObject[critiqueResult](response)
	if err != nil {
		e.state.AddReasoning(fmt.Sprintf("Error parsing self-critique: %v", err))
		return map[string]any{
			"critique_failed": true,
			"filtered_count":  len(findings),
		}
	}

	e.state.ReplaceFindings(critique.FilteredFindings)
	return map[string]any{
		"filtered_count": len(critique.FilteredFindings),
		"removed_count":  len(findings) - len(critique.FilteredFindings),
	}
}

// postReview publishes the review. A session publishes at most once; a
// duplicate call is rejected with an error result the oracle can see.
func (e *Executor) postReview(ctx context.Context, args map[string]any) map[string]any {
	if e.state.Published() {
		e.state.AddReasoning("Rejected duplicate post_review call")
		return params.Error("review already posted for this session")
	}

	summary, err := params.Extract[string](args, "summary")
	if err != nil {
		return params.Error("%v", err)
	}

	findings := e.state.Findings()
	if raw, ok := args["findings"]; ok {
		supplied, err := decodeFindings(raw)
		if err != nil {
			return params.Error("decoding findings parameter: %v", err)
		}
		findings = supplied
	}

	recommendation, err := params.ExtractOptional(args, "recommendation", string(review.RecommendComment))
	if err != nil {
		return params.Error("%v", err)
	}

	res, err := e.platform.PostReview(ctx, summary, findings, review.NormalizeRecommendation(recommendation))
	if err != nil {
		return params.Error("posting review: %v", err)
	}

	e.state.MarkPublished(res.Fallback)
	out := map[string]any{
		"success":         res.Success,
		"inline_comments": res.InlineComments,
	}
	if res.Fallback {
		out["fallback"] = true
	}
	if res.DryRun {
		out["dry_run"] = true
	}
	return out
}

// finish is a pure termination signal; the driver acts on the tool name,
// not on this result.
func (e *Executor) finish(_ context.Context, args map[string]any) map[string]any {
	reason, err := params.Extract[string](args, "reason")
	if err != nil {
		return params.Error("%v", err)
	}
	e.state.AddReasoning("Finishing: " + reason)
	return map[string]any{
		"status": "finishing",
		"reason": reason,
	}
}

// normalizeFocusAreas drops values outside the enumerated set.
func normalizeFocusAreas(areas []string) []string {
	valid := review.FocusAreas()
	var out []string
	for _, a := range areas {
		if slices.Contains(valid, a) {
			out = append(out, a)
		}
	}
	return out
}

func countLines(content string) int {
	return strings.Count(content, "\n") + 1
}

// decodeFindings converts a raw findings argument (a []any of JSON
// objects) into typed findings.
func decodeFindings(raw any) ([]review.Finding, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var findings []review.Finding
	if err := json.Unmarshal(b, &findings); err != nil {
		return nil, err
	}
	return findings, nil
}

// toMap round-trips a struct through JSON into a generic map.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toAnySlice round-trips a slice through JSON into generic values.
func toAnySlice[T any](vs []T) ([]any, error) {
	b, err := json.Marshal(vs)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
