/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/reviewagent/review/metrics"
	"chainguard.dev/reviewagent/review/registry"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens   = 8192
	defaultTemperature = 0.1
)

// Claude implements Decider and Analyst against the Anthropic Messages
// API. Each call rebuilds the conversation from the supplied history, so
// a single Claude value can serve many sessions concurrently.
type Claude struct {
	client      anthropic.Client
	model       string
	system      string
	maxTokens   int64
	temperature float64
	tools       []anthropic.ToolUnionParam
	retry       RetryConfig
	genai       *metrics.GenAI
}

// ClaudeOption configures a Claude oracle.
type ClaudeOption func(*Claude)

// WithModel overrides the default model.
func WithModel(model string) ClaudeOption {
	return func(c *Claude) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemPrompt sets the system instructions for decision calls.
func WithSystemPrompt(system string) ClaudeOption {
	return func(c *Claude) { c.system = system }
}

// WithMaxTokens overrides the per-call completion budget.
func WithMaxTokens(n int64) ClaudeOption {
	return func(c *Claude) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRetryConfig overrides the transient-error retry policy.
func WithRetryConfig(cfg RetryConfig) ClaudeOption {
	return func(c *Claude) { c.retry = cfg }
}

// NewClaude builds a Claude oracle exposing the full tool catalog to
// decision calls.
func NewClaude(client anthropic.Client, opts ...ClaudeOption) (*Claude, error) {
	c := &Claude{
		client:      client,
		model:       DefaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		retry:       DefaultRetryConfig(),
		genai:       metrics.NewGenAI("chainguard.ai.reviewagent"),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, def := range registry.Catalog() {
		properties, required, err := def.InputSchema()
		if err != nil {
			return nil, fmt.Errorf("building schema for tool %s: %w", def.Name, err)
		}
		c.tools = append(c.tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        string(def.Name),
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return c, nil
}

// Decide implements Decider. The conversation is reconstructed from the
// seed prompt and exchange history on every call.
func (c *Claude) Decide(ctx context.Context, seed string, history []Exchange) (Turn, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Tools:       c.tools,
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(seed)},
		}},
	}
	if c.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.system}}
	}

	for _, exchange := range history {
		assistant, err := assistantMessage(exchange.Turn)
		if err != nil {
			return Turn{}, err
		}
		params.Messages = append(params.Messages, assistant)

		if len(exchange.Results) > 0 {
			results := make([]anthropic.ContentBlockParamUnion, 0, len(exchange.Results))
			for _, r := range exchange.Results {
				block, err := toolResultBlock(r)
				if err != nil {
					return Turn{}, err
				}
				results = append(results, block)
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: results,
			})
		}
	}

	message, err := c.stream(ctx, "decide", params)
	if err != nil {
		return Turn{}, err
	}

	var turn Turn
	for _, content := range message.Content {
		switch content.Type {
		case "text":
			turn.Text = append(turn.Text, content.Text)
		case "tool_use":
			var args map[string]any
			if len(content.Input) > 0 {
				if err := json.Unmarshal(content.Input, &args); err != nil {
					return Turn{}, fmt.Errorf("decoding input for tool %s: %w", content.Name, err)
				}
			}
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:   content.ID,
				Name: content.Name,
				Args: args,
				Raw:  content.Input,
			})
		}
	}
	return turn, nil
}

// Analyze implements Analyst with a single tool-free model call.
func (c *Claude) Analyze(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
		}},
	}

	message, err := c.stream(ctx, "analyze", params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text content in model response")
	}
	return sb.String(), nil
}

// stream issues one streaming Messages call, accumulating events into a
// complete message and retrying transient API errors.
func (c *Claude) stream(ctx context.Context, operation string, params anthropic.MessageNewParams) (anthropic.Message, error) {
	message, err := withBackoff(ctx, c.retry, operation, retryable, func() (anthropic.Message, error) {
		stream := c.client.Messages.NewStreaming(ctx, params)
		var msg anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := msg.Accumulate(event); err != nil {
				return msg, fmt.Errorf("accumulating stream event: %w", err)
			}
		}
		if err := stream.Err(); err != nil {
			return msg, err
		}
		return msg, nil
	})
	if err != nil {
		return anthropic.Message{}, fmt.Errorf("streaming model response: %w", err)
	}

	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		c.genai.RecordTokens(ctx, c.model, message.Usage.InputTokens, message.Usage.OutputTokens)
		clog.FromContext(ctx).With("operation", operation).
			With("input_tokens", message.Usage.InputTokens).
			With("output_tokens", message.Usage.OutputTokens).
			Debug("Model call completed")
	}
	return message, nil
}

func assistantMessage(turn Turn) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, text := range turn.Text {
		if text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(text))
		}
	}
	for _, call := range turn.ToolCalls {
		input := call.Raw
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    call.ID,
				Name:  call.Name,
				Input: input,
			},
		})
	}
	if len(blocks) == 0 {
		return anthropic.MessageParam{}, errors.New("assistant turn has no content")
	}
	return anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleAssistant,
		Content: blocks,
	}, nil
}

func toolResultBlock(r ToolResult) (anthropic.ContentBlockParamUnion, error) {
	payload, err := json.Marshal(r.Content)
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("marshaling tool result %s: %w", r.ID, err)
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: r.ID,
			Content: []anthropic.ToolResultBlockParamContentUnion{{
				OfText: &anthropic.TextBlockParam{Text: string(payload)},
			}},
		},
	}, nil
}
