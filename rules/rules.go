/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package rules loads review rule configuration: per-category setting
// maps merged over built-in defaults. Rules are advisory context folded
// into the review system prompt, not enforced mechanically.
package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules maps category names to their settings.
type Rules map[string]map[string]any

// Defaults returns the built-in rule set.
func Defaults() Rules {
	return Rules{
		"documentation": {
			"enabled":            true,
			"require_docstrings": true,
			"require_type_hints": true,
		},
		"style": {
			"enabled":             true,
			"max_line_length":     100,
			"max_function_length": 50,
			"max_complexity":      10,
		},
		"algorithms": {
			"enabled":           true,
			"flag_nested_loops": true,
			"suggest_builtins":  true,
		},
		"security": {
			"enabled":                 true,
			"check_hardcoded_secrets": true,
			"check_sql_injection":     true,
		},
		"maintainability": {
			"enabled":           true,
			"max_parameters":    5,
			"flag_global_state": true,
		},
	}
}

// Load reads a YAML rules file and merges it over the defaults.
// Category settings merge key-by-key; unknown categories are added
// wholesale. An empty path returns the defaults unchanged.
func Load(path string) (Rules, error) {
	merged := Defaults()
	if path == "" {
		return merged, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var custom Rules
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	for category, settings := range custom {
		existing, ok := merged[category]
		if !ok {
			merged[category] = settings
			continue
		}
		for key, value := range settings {
			existing[key] = value
		}
	}
	return merged, nil
}

// Render formats the rules as indented JSON for prompt inclusion.
func (r Rules) Render() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
