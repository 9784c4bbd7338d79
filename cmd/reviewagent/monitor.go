/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/reviewagent/githubclient"
	"chainguard.dev/reviewagent/monitor"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/spf13/cobra"
)

func monitorCmd() *cobra.Command {
	var (
		repos     []string
		interval  time.Duration
		once      bool
		dryRun    bool
		rulesPath string
		statePath string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll repositories and review new pull requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if len(repos) == 0 {
				return errors.New("at least one --repo is required")
			}

			gh, err := githubclient.NewGitHubClient(ctx, cfg.credentials())
			if err != nil {
				return err
			}
			store, err := monitor.OpenStore(statePath)
			if err != nil {
				return err
			}

			review := func(ctx context.Context, repo string, number int) error {
				summary, _, err := runReview(ctx, cfg, repo, number, rulesPath, dryRun)
				if err != nil {
					return err
				}
				clog.FromContext(ctx).With("repo", repo).With("pr", number).
					With("findings", summary.FinalFindings).
					With("published", summary.Published).
					With("reason", summary.Reason).
					Info("Review session finished")
				return nil
			}

			m := monitor.New(repos, interval, store, listOpenPulls(gh), review)
			if once {
				n := m.RunOnce(ctx)
				fmt.Printf("Reviewed %d PR(s)\n", n)
				return nil
			}
			if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&repos, "repo", nil, "repository to monitor (owner/repo); repeatable")
	cmd.Flags().DurationVar(&interval, "interval", monitor.DefaultInterval, "polling interval")
	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit (for cron)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log reviews instead of posting them")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rules file merged over the defaults")
	cmd.Flags().StringVar(&statePath, "state", "", "reviewed-PRs state file (defaults to ~/.reviewagent)")

	return cmd
}

// listOpenPulls adapts the GitHub API to the monitor's lister, following
// pagination.
func listOpenPulls(gh *github.Client) monitor.ListFunc {
	return func(ctx context.Context, repo string) ([]monitor.PullHead, error) {
		owner, name, err := splitRepo(repo)
		if err != nil {
			return nil, err
		}

		var out []monitor.PullHead
		opts := &github.PullRequestListOptions{
			State:       "open",
			ListOptions: github.ListOptions{PerPage: 100},
		}
		for {
			pulls, resp, err := gh.PullRequests.List(ctx, owner, name, opts)
			if err != nil {
				return nil, fmt.Errorf("listing open PRs for %s: %w", repo, err)
			}
			for _, pr := range pulls {
				out = append(out, monitor.PullHead{
					Number:  pr.GetNumber(),
					Title:   pr.GetTitle(),
					HeadSHA: pr.GetHead().GetSHA(),
					Draft:   pr.GetDraft(),
				})
			}
			if resp.NextPage == 0 {
				return out, nil
			}
			opts.Page = resp.NextPage
		}
	}
}
