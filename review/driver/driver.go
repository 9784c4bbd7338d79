/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package driver runs the reasoning loop: a bounded, single-threaded
// conversation with the decision oracle in which every oracle turn is
// either free-text thinking or a batch of tool calls, executed in order.
package driver

import (
	"context"
	"fmt"

	"chainguard.dev/reviewagent/review/oracle"
	"chainguard.dev/reviewagent/review/registry"
	"chainguard.dev/reviewagent/review/session"
	"github.com/chainguard-dev/clog"
)

// Termination reasons reported in the session summary. Budget exhaustion
// is a normal terminal state, not an error.
const (
	ReasonExplicit        = "explicit"
	ReasonPublished       = "published"
	ReasonBudgetExhausted = "budget_exhausted"
)

// SystemPrompt is the standing instruction set for the decision oracle.
const SystemPrompt = `You are an expert code review agent. Your goal is to provide valuable,
actionable code review feedback on a Pull Request.

You have access to tools to:
1. Analyze the PR context (always do this first)
2. Fetch changed files and related files for context
3. Perform focused code reviews
4. Self-critique your findings to remove noise
5. Post the final review

## Your Process:
1. First, analyze the PR context to understand what's being changed
2. Based on the context, decide what to focus on (security for auth code, performance for data processing, etc.)
3. If needed, fetch related files for context (imports, base classes, tests)
4. Perform a focused review
5. Self-critique to remove low-value findings
6. Post the review with a clear summary and recommendation

## Important Guidelines:
- Quality over quantity: fewer, better findings
- Be specific with line numbers and suggestions
- Consider the context: a prototype PR needs different feedback than a production PR
- Don't be pedantic about style unless it affects readability
- Praise good code too, not just problems

Think step by step about what to do next. After each tool result, reason about what you learned and what to do next.`

// SeedInstruction opens every session's conversation.
const SeedInstruction = "Please review the Pull Request. Start by analyzing the PR context."

// traceTruncateLimit bounds free-text reasoning recorded in the trace.
const traceTruncateLimit = 200

// ToolExecutor performs one tool call, returning a result the oracle can
// observe. Implementations never return Go errors; failures are encoded
// in the result map.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) map[string]any
}

// Driver owns one session's reasoning loop.
type Driver struct {
	state   *session.State
	decider oracle.Decider
	exec    ToolExecutor
}

// New builds a driver for one session.
func New(state *session.State, decider oracle.Decider, exec ToolExecutor) *Driver {
	return &Driver{
		state:   state,
		decider: decider,
		exec:    exec,
	}
}

// Run executes the loop to termination and returns the session summary.
// Only a failure to reach the decision oracle at all is fatal; every
// other failure is converted into a tool result and the loop continues.
func (d *Driver) Run(ctx context.Context) (session.Summary, error) {
	log := clog.FromContext(ctx)
	var history []oracle.Exchange

	for {
		if d.state.Iteration() >= d.state.MaxIterations() {
			log.With("iterations", d.state.Iteration()).
				Info("Iteration budget exhausted")
			return d.state.Summarize(ReasonBudgetExhausted), nil
		}
		log.With("iteration", d.state.NextIteration()).Info("Starting loop pass")

		turn, err := d.decider.Decide(ctx, SeedInstruction, history)
		if err != nil {
			return d.state.Summarize("oracle_failure"), fmt.Errorf("decision oracle call failed: %w", err)
		}

		for _, text := range turn.Text {
			d.state.AddReasoning(truncate(text, traceTruncateLimit))
		}

		// A turn with no tool calls is the oracle thinking aloud; keep
		// it in the conversation and loop again without executing
		// anything. The iteration is already charged.
		if len(turn.ToolCalls) == 0 {
			if len(turn.Text) > 0 {
				history = append(history, oracle.Exchange{Turn: turn})
			}
			continue
		}

		// Execute sequentially: later calls in the same turn may depend
		// on earlier ones' effects. Each result echoes the call's
		// correlation ID.
		finishRequested := false
		results := make([]oracle.ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			results = append(results, oracle.ToolResult{
				ID:      call.ID,
				Content: d.exec.Execute(ctx, call.Name, call.Args),
			})
			if registry.Name(call.Name) == registry.Finish {
				finishRequested = true
			}
		}
		history = append(history, oracle.Exchange{Turn: turn, Results: results})

		switch {
		case finishRequested:
			return d.state.Summarize(ReasonExplicit), nil
		case d.state.Published():
			return d.state.Summarize(ReasonPublished), nil
		}
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
