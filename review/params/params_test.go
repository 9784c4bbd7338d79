/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params_test

import (
	"testing"

	"chainguard.dev/reviewagent/review/params"
	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	args := map[string]any{
		"name":  "hello",
		"count": float64(42),
		"flag":  true,
	}

	t.Run("string", func(t *testing.T) {
		v, err := params.Extract[string](args, "name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "hello" {
			t.Errorf("got %q, want %q", v, "hello")
		}
	})

	t.Run("int from float64", func(t *testing.T) {
		v, err := params.Extract[int](args, "count")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	})

	t.Run("bool", func(t *testing.T) {
		v, err := params.Extract[bool](args, "flag")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !v {
			t.Error("got false, want true")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := params.Extract[string](args, "missing"); err == nil {
			t.Fatal("expected error for missing parameter")
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		if _, err := params.Extract[int](args, "name"); err == nil {
			t.Fatal("expected error for type mismatch")
		}
	})
}

func TestExtractOptional(t *testing.T) {
	args := map[string]any{"criteria": "specific and actionable"}

	v, err := params.ExtractOptional(args, "criteria", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "specific and actionable" {
		t.Errorf("got %q", v)
	}

	v, err = params.ExtractOptional(args, "absent", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "default" {
		t.Errorf("got %q, want default", v)
	}
}

func TestStringSlice(t *testing.T) {
	t.Run("from []any", func(t *testing.T) {
		args := map[string]any{"file_paths": []any{"a.py", "b.py"}}
		v, err := params.StringSlice(args, "file_paths")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a.py", "b.py"}, v); diff != "" {
			t.Errorf("unexpected slice (-want +got):\n%s", diff)
		}
	})

	t.Run("mixed element types", func(t *testing.T) {
		args := map[string]any{"file_paths": []any{"a.py", float64(3)}}
		if _, err := params.StringSlice(args, "file_paths"); err == nil {
			t.Fatal("expected error for non-string element")
		}
	})

	t.Run("missing required", func(t *testing.T) {
		if _, err := params.StringSlice(map[string]any{}, "file_paths"); err == nil {
			t.Fatal("expected error for missing parameter")
		}
	})

	t.Run("optional absent returns nil", func(t *testing.T) {
		v, err := params.OptionalStringSlice(map[string]any{}, "file_types")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != nil {
			t.Errorf("got %v, want nil", v)
		}
	})
}

func TestError(t *testing.T) {
	resp := params.Error("unknown tool: %q", "bogus")
	if resp["error"] != `unknown tool: "bogus"` {
		t.Errorf("got %v", resp["error"])
	}
}
