/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubclient implements the hosting-platform surface of the
// review loop against the GitHub API: pull request metadata, changed
// file contents, and review publication with inline comments.
package githubclient

import (
	"context"
	"fmt"

	"chainguard.dev/reviewagent/review"
	"github.com/google/go-github/v84/github"
)

// Client serves one pull request. It satisfies the executor's Platform
// interface.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	number int
}

// New wraps an authenticated go-github client for one pull request.
func New(gh *github.Client, owner, repo string, number int) *Client {
	return &Client{
		gh:     gh,
		owner:  owner,
		repo:   repo,
		number: number,
	}
}

// PullRequest fetches the PR's metadata.
func (c *Client) PullRequest(ctx context.Context) (*review.PullRequestInfo, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, c.number)
	if err != nil {
		return nil, fmt.Errorf("getting PR %s/%s#%d: %w", c.owner, c.repo, c.number, err)
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return &review.PullRequestInfo{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		Labels:      labels,
		BaseBranch:  pr.GetBase().GetRef(),
		HeadBranch:  pr.GetHead().GetRef(),
		BaseSHA:     pr.GetBase().GetSHA(),
		HeadSHA:     pr.GetHead().GetSHA(),
		Draft:       pr.GetDraft(),
	}, nil
}

// ChangedFiles lists the files changed in the PR, following pagination.
func (c *Client) ChangedFiles(ctx context.Context) ([]review.ChangedFile, error) {
	var out []review.ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, c.number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s/%s#%d: %w", c.owner, c.repo, c.number, err)
		}
		for _, f := range files {
			out = append(out, review.ChangedFile{
				Filename:  f.GetFilename(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Status:    f.GetStatus(),
				Patch:     f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// ChangedFileContents fetches every changed file with its content at the
// PR head. Removed files are reported without content.
func (c *Client) ChangedFileContents(ctx context.Context) ([]review.FileContent, error) {
	info, err := c.PullRequest(ctx)
	if err != nil {
		return nil, err
	}
	files, err := c.ChangedFiles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]review.FileContent, 0, len(files))
	for _, f := range files {
		fc := review.FileContent{
			Filename: f.Filename,
			Status:   f.Status,
		}
		if f.Status != "removed" {
			content, err := c.FileContent(ctx, f.Filename, info.HeadSHA)
			if err != nil {
				return nil, err
			}
			fc.Content = content
		}
		out = append(out, fc)
	}
	return out, nil
}

// FileContent fetches one repository file's content at the given ref.
// An empty ref selects the repository's default branch.
func (c *Client) FileContent(ctx context.Context, path, ref string) (string, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		return "", fmt.Errorf("getting %s@%s: %w", path, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is not a file", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}
