/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package oracle abstracts the language model behind the review loop.
//
// Two narrow interfaces cover the loop's needs: Decider drives the
// tool-use conversation (which tool to call next), and Analyst answers
// one-shot analysis prompts (the inner model calls made by review_code
// and self_critique). Claude implements both; tests substitute scripted
// stubs.
package oracle

import (
	"context"
	"encoding/json"
)

// ToolCall is one tool invocation requested by the decision model.
// Args is the decoded input object; Raw preserves the original JSON for
// echoing back into conversation history.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
	Raw  json.RawMessage
}

// ToolResult pairs an executed tool call's correlation ID with its
// structured result payload.
type ToolResult struct {
	ID      string
	Content map[string]any
}

// Turn is one assistant response: any prose the model produced plus the
// tool calls it requested, in order.
type Turn struct {
	Text      []string
	ToolCalls []ToolCall
}

// Exchange is one completed round of the conversation: the assistant's
// turn and the results of every tool call in it.
type Exchange struct {
	Turn    Turn
	Results []ToolResult
}

// Decider chooses the next action in the review loop. Decide receives
// the seed prompt and the full exchange history and returns the model's
// next turn. Implementations are stateless across calls; history is the
// only memory.
type Decider interface {
	Decide(ctx context.Context, seed string, history []Exchange) (Turn, error)
}

// Analyst answers a single analysis prompt with prose, with no tool use
// involved.
type Analyst interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}
