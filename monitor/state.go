/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry records one completed review of a PR at a specific head commit.
type Entry struct {
	HeadSHA    string    `json:"head_sha"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Store tracks which PRs have been reviewed at which head commit, so a
// PR is re-reviewed only when it gains new commits. State is a JSON file
// keyed by "owner/repo#number"; it is rewritten on every mark.
type Store struct {
	path    string
	entries map[string]Entry
}

// DefaultStatePath returns the state file location under the user's
// home directory.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reviewagent", "reviewed_prs.json")
	}
	return filepath.Join(home, ".reviewagent", "reviewed_prs.json")
}

// OpenStore loads the state file, creating its directory if needed. A
// missing or unreadable file yields an empty store.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultStatePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	s := &Store{path: path, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		// Corrupt state means everything gets re-reviewed, which is
		// safe; start fresh.
		s.entries = make(map[string]Entry)
	}
	return s, nil
}

func key(repo string, number int) string {
	return fmt.Sprintf("%s#%d", repo, number)
}

// WasReviewed reports whether the PR was already reviewed at this exact
// head commit. A new commit on a reviewed PR returns false.
func (s *Store) WasReviewed(repo string, number int, headSHA string) bool {
	entry, ok := s.entries[key(repo, number)]
	return ok && entry.HeadSHA == headSHA
}

// MarkReviewed records a review attempt and persists the state file.
func (s *Store) MarkReviewed(repo string, number int, headSHA string, success bool, reviewErr error) error {
	entry := Entry{
		HeadSHA:    headSHA,
		ReviewedAt: time.Now().UTC(),
		Success:    success,
	}
	if reviewErr != nil {
		entry.Error = reviewErr.Error()
	}
	s.entries[key(repo, number)] = entry
	return s.save()
}

// Clear removes state for one repo, or everything when repo is empty.
func (s *Store) Clear(repo string) error {
	if repo == "" {
		s.entries = make(map[string]Entry)
	} else {
		for k := range s.entries {
			if strings.HasPrefix(k, repo+"#") {
				delete(s.entries, k)
			}
		}
	}
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
