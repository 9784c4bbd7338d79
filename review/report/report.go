/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders human-readable session output for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/session"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSummary renders the session termination record as a markdown table.
func WriteSummary(w io.Writer, summary session.Summary) error {
	fmt.Fprintln(w, "## Review Session")
	fmt.Fprintln(w)

	table := newTable([]string{"Metric", "Value"}, w)
	_ = table.Append([]string{"Iterations used", strconv.Itoa(summary.Iterations)})
	_ = table.Append([]string{"Files reviewed", strconv.Itoa(summary.FilesReviewed)})
	_ = table.Append([]string{"Related files fetched", strconv.Itoa(summary.RelatedFiles)})
	_ = table.Append([]string{"Final findings", strconv.Itoa(summary.FinalFindings)})
	_ = table.Append([]string{"Published", strconv.FormatBool(summary.Published)})
	if summary.PublishFallback {
		_ = table.Append([]string{"Publish fallback", "true"})
	}
	_ = table.Append([]string{"Termination", summary.Reason})
	return table.Render()
}

// WriteFindings renders findings as a markdown table, one row per finding.
func WriteFindings(w io.Writer, findings []review.Finding) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return nil
	}

	table := newTable([]string{"File", "Line", "Severity", "Category", "Message"}, w)
	for _, f := range findings {
		line := ""
		if f.Line != nil {
			line = strconv.Itoa(*f.Line)
		}
		_ = table.Append([]string{f.File, line, string(f.Severity), f.Category, f.Message})
	}
	return table.Render()
}

// WriteTrace renders the reasoning trace for verbose output.
func WriteTrace(w io.Writer, trace []session.Thought) error {
	if len(trace) == 0 {
		return nil
	}
	table := newTable([]string{"Iteration", "Thought"}, w)
	for _, th := range trace {
		_ = table.Append([]string{strconv.Itoa(th.Iteration), th.Thought})
	}
	return table.Render()
}

// newTable creates a table writer with consistent markdown-style
// formatting across all session reports.
func newTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
