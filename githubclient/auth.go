/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Credentials selects one of the supported authentication modes: a
// personal access token, or a GitHub App installation (reviews then
// appear as the app's bot identity).
type Credentials struct {
	// Token is a personal access token. Takes precedence when set.
	Token string

	// App installation credentials.
	AppID             int64
	AppInstallationID int64
	AppPrivateKeyPath string
}

// NewGitHubClient builds an authenticated go-github client from the
// configured credentials.
func NewGitHubClient(ctx context.Context, creds Credentials) (*github.Client, error) {
	switch {
	case creds.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		return github.NewClient(oauth2.NewClient(ctx, ts)), nil

	case creds.AppID != 0:
		if creds.AppInstallationID == 0 || creds.AppPrivateKeyPath == "" {
			return nil, errors.New("app auth requires an installation ID and a private key path")
		}
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport,
			creds.AppID, creds.AppInstallationID, creds.AppPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading app credentials: %w", err)
		}
		return github.NewClient(&http.Client{Transport: itr}), nil

	default:
		return nil, errors.New("no GitHub credentials configured: set a token or app credentials")
	}
}
