/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt is a small placeholder-template binder for analysis
// prompts. Templates declare {{name}} placeholders; Render fails if any
// placeholder is left unbound, so a prompt can never reach the model
// with a hole in it.
package prompt

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Template is an immutable prompt template. Bind methods return a new
// Template, leaving the receiver untouched so one parsed template can be
// bound repeatedly (e.g. once per reviewed file).
type Template struct {
	text     string
	bindings map[string]string
	bound    map[string]bool
}

// New parses a template, collecting its {{name}} placeholders.
func New(text string) (*Template, error) {
	bound := make(map[string]bool)
	if err := walk(text, func(name string) error {
		bound[name] = false
		return nil
	}); err != nil {
		return nil, err
	}
	return &Template{
		text:     text,
		bindings: make(map[string]string),
		bound:    bound,
	}, nil
}

// Bind binds a string value to a placeholder.
func (t *Template) Bind(name, value string) (*Template, error) {
	if _, ok := t.bound[name]; !ok {
		return nil, fmt.Errorf("template has no placeholder %q", name)
	}
	nt := t.clone()
	nt.bindings[name] = value
	nt.bound[name] = true
	return nt, nil
}

// BindJSON binds structured data to a placeholder by marshaling it as
// indented JSON.
func (t *Template) BindJSON(name string, data any) (*Template, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling binding %q: %w", name, err)
	}
	return t.Bind(name, string(b))
}

// Render produces the final prompt text, failing if any placeholder is
// still unbound.
func (t *Template) Render() (string, error) {
	var unbound []string
	for name, ok := range t.bound {
		if !ok {
			unbound = append(unbound, name)
		}
	}
	if len(unbound) > 0 {
		sort.Strings(unbound)
		return "", fmt.Errorf("unbound placeholders: %s", strings.Join(unbound, ", "))
	}

	var sb strings.Builder
	rest := t.text
	for {
		idx := strings.Index(rest, "{{")
		if idx < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:idx])
		end := strings.Index(rest[idx:], "}}")
		name := strings.TrimSpace(rest[idx+2 : idx+end])
		sb.WriteString(t.bindings[name])
		rest = rest[idx+end+2:]
	}
}

func (t *Template) clone() *Template {
	return &Template{
		text:     t.text,
		bindings: maps.Clone(t.bindings),
		bound:    maps.Clone(t.bound),
	}
}

// walk invokes fn for each placeholder in text, validating delimiters.
func walk(text string, fn func(name string) error) error {
	rest := text
	for {
		idx := strings.Index(rest, "{{")
		if idx < 0 {
			return nil
		}
		end := strings.Index(rest[idx:], "}}")
		if end < 0 {
			return fmt.Errorf("unterminated placeholder near %q", snippet(rest[idx:]))
		}
		name := strings.TrimSpace(rest[idx+2 : idx+end])
		if name == "" {
			return fmt.Errorf("empty placeholder near %q", snippet(rest[idx:]))
		}
		if err := fn(name); err != nil {
			return err
		}
		rest = rest[idx+end+2:]
	}
}

func snippet(s string) string {
	if len(s) > 20 {
		return s[:20]
	}
	return s
}
