/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package review defines the shared domain types for agentic pull request
review: findings, PR context snapshots, changed-file records, and the
result of publishing a review.

The packages underneath it implement the review loop itself:

  - review/session: per-session mutable state
  - review/registry: the fixed tool catalog the decision oracle may use
  - review/oracle: the decision oracle boundary and its Claude implementation
  - review/executor: maps requested tool calls onto session state and the
    hosting platform
  - review/driver: the bounded reasoning loop
*/
package review
