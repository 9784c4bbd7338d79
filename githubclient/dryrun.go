/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubclient

import (
	"context"

	"chainguard.dev/reviewagent/review"
	"chainguard.dev/reviewagent/review/executor"
	"github.com/chainguard-dev/clog"
)

// DryRun wraps a platform so reads pass through but PostReview only logs
// what would have been published.
func DryRun(p executor.Platform) executor.Platform {
	return &dryRunPlatform{Platform: p}
}

type dryRunPlatform struct {
	executor.Platform
}

func (d *dryRunPlatform) PostReview(ctx context.Context, summary string, findings []review.Finding, rec review.Recommendation) (*review.PublishResult, error) {
	clog.FromContext(ctx).With("recommendation", rec).
		With("findings", len(findings)).
		With("summary", summary).
		Info("Dry run: skipping review publication")
	return &review.PublishResult{Success: true, DryRun: true}, nil
}
