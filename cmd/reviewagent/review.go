/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"os"

	"chainguard.dev/reviewagent/githubclient"
	"chainguard.dev/reviewagent/review/driver"
	"chainguard.dev/reviewagent/review/executor"
	"chainguard.dev/reviewagent/review/oracle"
	"chainguard.dev/reviewagent/review/report"
	"chainguard.dev/reviewagent/review/session"
	"chainguard.dev/reviewagent/rules"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	var (
		repo      string
		prNumber  int
		dryRun    bool
		verbose   bool
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run one agentic review session against a pull request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			summary, state, err := runReview(ctx, cfg, repo, prNumber, rulesPath, dryRun)
			if err != nil {
				return err
			}

			if err := report.WriteSummary(os.Stdout, summary); err != nil {
				return err
			}
			if verbose {
				fmt.Println()
				if err := report.WriteFindings(os.Stdout, state.Findings()); err != nil {
					return err
				}
				fmt.Println()
				if err := report.WriteTrace(os.Stdout, state.ReasoningTrace()); err != nil {
					return err
				}
			}
			if !summary.Published {
				return fmt.Errorf("review was not published: %s", summary.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "repository in owner/repo form")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "pull request number")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the review instead of posting it")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print findings and the reasoning trace")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rules file merged over the defaults")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}

// runReview wires one complete session: platform, oracle, executor,
// driver. The returned state backs verbose output.
func runReview(ctx context.Context, cfg *config, repo string, prNumber int, rulesPath string, dryRun bool) (session.Summary, *session.State, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return session.Summary{}, nil, err
	}

	gh, err := githubclient.NewGitHubClient(ctx, cfg.credentials())
	if err != nil {
		return session.Summary{}, nil, err
	}
	var platform executor.Platform = githubclient.New(gh, owner, name, prNumber)
	if dryRun {
		platform = githubclient.DryRun(platform)
	}

	loaded, err := rules.Load(rulesPath)
	if err != nil {
		return session.Summary{}, nil, err
	}
	rendered, err := loaded.Render()
	if err != nil {
		return session.Summary{}, nil, err
	}

	var clientOpts []option.RequestOption
	if cfg.AnthropicAPIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.AnthropicAPIKey))
	}
	claude, err := oracle.NewClaude(anthropic.NewClient(clientOpts...),
		oracle.WithModel(cfg.Model),
		oracle.WithSystemPrompt(systemPrompt(rendered)))
	if err != nil {
		return session.Summary{}, nil, err
	}

	state := session.New(cfg.MaxIterations)
	exec := executor.New(state, platform, claude, executor.WithRules(rendered))
	summary, err := driver.New(state, claude, exec).Run(ctx)
	return summary, state, err
}

// systemPrompt appends the rendered review rules to the standing
// instructions.
func systemPrompt(renderedRules string) string {
	return driver.SystemPrompt + "\n\n## Review Rules\nApply these project rules when judging findings:\n" + renderedRules
}
