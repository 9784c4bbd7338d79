/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package monitor_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"chainguard.dev/reviewagent/monitor"
)

func tempStore(t *testing.T) *monitor.Store {
	t.Helper()
	s, err := monitor.OpenStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStoreTracksHeadSHA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := monitor.OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.WasReviewed("octo/repo", 7, "aaa") {
		t.Error("fresh store should have no entries")
	}
	if err := s.MarkReviewed("octo/repo", 7, "aaa", true, nil); err != nil {
		t.Fatal(err)
	}
	if !s.WasReviewed("octo/repo", 7, "aaa") {
		t.Error("reviewed PR should be recorded")
	}
	// A new head commit means the review is stale.
	if s.WasReviewed("octo/repo", 7, "bbb") {
		t.Error("new head SHA should require re-review")
	}

	// State survives reopening.
	s2, err := monitor.OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if !s2.WasReviewed("octo/repo", 7, "aaa") {
		t.Error("state was not persisted")
	}
}

func TestStoreClear(t *testing.T) {
	s := tempStore(t)
	if err := s.MarkReviewed("octo/a", 1, "sha1", true, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkReviewed("octo/b", 2, "sha2", true, nil); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear("octo/a"); err != nil {
		t.Fatal(err)
	}
	if s.WasReviewed("octo/a", 1, "sha1") {
		t.Error("cleared repo entry remains")
	}
	if !s.WasReviewed("octo/b", 2, "sha2") {
		t.Error("other repo entry should survive a scoped clear")
	}
}

func TestRunOnceReviewsNewPRsOnly(t *testing.T) {
	store := tempStore(t)
	pulls := []monitor.PullHead{
		{Number: 1, Title: "feat", HeadSHA: "sha1"},
		{Number: 2, Title: "draft", HeadSHA: "sha2", Draft: true},
		{Number: 3, Title: "fix", HeadSHA: "sha3"},
	}
	var reviewed []int

	m := monitor.New([]string{"octo/repo"}, 0, store,
		func(context.Context, string) ([]monitor.PullHead, error) { return pulls, nil },
		func(_ context.Context, _ string, number int) error {
			reviewed = append(reviewed, number)
			return nil
		})

	if n := m.RunOnce(context.Background()); n != 2 {
		t.Errorf("reviewed %d PRs, want 2 (draft skipped)", n)
	}

	// Second sweep with unchanged heads reviews nothing.
	reviewed = nil
	if n := m.RunOnce(context.Background()); n != 0 {
		t.Errorf("re-reviewed unchanged PRs: %v", reviewed)
	}

	// New commit on PR 1 triggers exactly one re-review.
	pulls[0].HeadSHA = "sha1-new"
	if n := m.RunOnce(context.Background()); n != 1 {
		t.Errorf("got %d reviews after head change, want 1", n)
	}
}

func TestRunOnceRecordsFailures(t *testing.T) {
	store := tempStore(t)
	boom := errors.New("session failed")
	calls := 0

	m := monitor.New([]string{"octo/repo"}, 0, store,
		func(context.Context, string) ([]monitor.PullHead, error) {
			return []monitor.PullHead{{Number: 9, HeadSHA: "sha9"}}, nil
		},
		func(context.Context, string, int) error {
			calls++
			return boom
		})

	if n := m.RunOnce(context.Background()); n != 0 {
		t.Errorf("failed review counted as success: %d", n)
	}
	// The failure is recorded against the head SHA, so the same commit
	// is not retried in a tight loop.
	if n := m.RunOnce(context.Background()); n != 0 || calls != 1 {
		t.Errorf("failed PR was retried at the same head (calls=%d)", calls)
	}
}

func TestRunOnceListFailureIsIsolated(t *testing.T) {
	store := tempStore(t)
	var reviewed int

	m := monitor.New([]string{"octo/bad", "octo/good"}, 0, store,
		func(_ context.Context, repo string) ([]monitor.PullHead, error) {
			if repo == "octo/bad" {
				return nil, errors.New("403")
			}
			return []monitor.PullHead{{Number: 1, HeadSHA: "s"}}, nil
		},
		func(context.Context, string, int) error {
			reviewed++
			return nil
		})

	if n := m.RunOnce(context.Background()); n != 1 || reviewed != 1 {
		t.Errorf("good repo should still be swept: n=%d reviewed=%d", n, reviewed)
	}
}
