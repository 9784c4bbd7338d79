/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package monitor polls repositories for open pull requests and reviews
// each one once per head commit.
package monitor

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 5 * time.Minute

// PullHead is the subset of PR metadata the monitor needs to decide
// whether a review is due.
type PullHead struct {
	Number  int
	Title   string
	HeadSHA string
	Draft   bool
}

// ListFunc lists a repository's open pull requests.
type ListFunc func(ctx context.Context, repo string) ([]PullHead, error)

// ReviewFunc runs one review session against a PR. The monitor records
// the outcome either way.
type ReviewFunc func(ctx context.Context, repo string, number int) error

// Monitor polls a set of repositories and triggers reviews for PRs not
// yet reviewed at their current head commit.
type Monitor struct {
	repos    []string
	interval time.Duration
	store    *Store
	list     ListFunc
	review   ReviewFunc
}

// New builds a monitor. A non-positive interval selects DefaultInterval.
func New(repos []string, interval time.Duration, store *Store, list ListFunc, review ReviewFunc) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		repos:    repos,
		interval: interval,
		store:    store,
		list:     list,
		review:   review,
	}
}

// RunOnce checks every repository a single time and returns how many
// reviews ran. Per-repo failures are logged and skipped; they never stop
// the sweep.
func (m *Monitor) RunOnce(ctx context.Context) int {
	log := clog.FromContext(ctx)
	reviewed := 0

	for _, repo := range m.repos {
		pulls, err := m.list(ctx, repo)
		if err != nil {
			log.With("repo", repo).With("error", err).Error("Listing open PRs failed")
			continue
		}
		log.With("repo", repo).With("open_prs", len(pulls)).Debug("Checked repository")

		for _, pr := range pulls {
			if pr.Draft {
				continue
			}
			if m.store.WasReviewed(repo, pr.Number, pr.HeadSHA) {
				continue
			}

			log.With("repo", repo).With("pr", pr.Number).
				With("title", pr.Title).Info("Reviewing PR")

			reviewErr := m.review(ctx, repo, pr.Number)
			if reviewErr != nil {
				log.With("repo", repo).With("pr", pr.Number).
					With("error", reviewErr).Error("Review failed")
			} else {
				reviewed++
			}
			if err := m.store.MarkReviewed(repo, pr.Number, pr.HeadSHA, reviewErr == nil, reviewErr); err != nil {
				log.With("error", err).Error("Persisting review state failed")
			}
		}
	}
	return reviewed
}

// Run polls until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	log := clog.FromContext(ctx)
	log.With("repos", m.repos).With("interval", m.interval).Info("Starting PR monitor")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if n := m.RunOnce(ctx); n > 0 {
			log.With("reviewed", n).Info("Completed review sweep")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
