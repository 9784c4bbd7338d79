/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/reviewagent/githubclient"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// config carries all environment-driven settings.
type config struct {
	// GitHub authentication: a PAT, or GitHub App credentials.
	GitHubToken             string `env:"GITHUB_TOKEN"`
	GitHubAppID             int64  `env:"GITHUB_APP_ID"`
	GitHubAppInstallationID int64  `env:"GITHUB_APP_INSTALLATION_ID"`
	GitHubAppPrivateKeyPath string `env:"GITHUB_APP_PRIVATE_KEY_PATH"`

	// Anthropic API key; the SDK also reads ANTHROPIC_API_KEY itself.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	Model         string `env:"REVIEW_MODEL,default=claude-sonnet-4-5-20250929"`
	MaxIterations int    `env:"REVIEW_MAX_ITERATIONS,default=10"`
}

func loadConfig(ctx context.Context) (*config, error) {
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}

func (c *config) credentials() githubclient.Credentials {
	return githubclient.Credentials{
		Token:             c.GitHubToken,
		AppID:             c.GitHubAppID,
		AppInstallationID: c.GitHubAppInstallationID,
		AppPrivateKeyPath: c.GitHubAppPrivateKeyPath,
	}
}

// splitRepo parses "owner/repo".
func splitRepo(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reviewagent",
		Short:         "Agentic code review for pull requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(reviewCmd(), monitorCmd())
	return cmd
}
