/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubclient

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeader matches a unified diff hunk header and captures the new
// file's start line: @@ -old_start,old_count +new_start,new_count @@
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// patchPositions maps new-file line numbers to positions within one
// file's patch. Only lines present in the diff (additions and context)
// are mapped; inline review comments can target exactly these lines.
func patchPositions(patch string) map[int]int {
	if patch == "" {
		return nil
	}

	positions := make(map[int]int)
	position := 0
	currentLine := 0

	for _, line := range strings.Split(patch, "\n") {
		position++

		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			start, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			currentLine = start - 1
			continue
		}

		// Deletions exist only in the old file.
		if strings.HasPrefix(line, "-") {
			continue
		}

		currentLine++
		positions[currentLine] = position
	}
	return positions
}

// diffPositions computes per-file commentable line maps for a set of
// changed files.
func diffPositions(files map[string]string) map[string]map[int]int {
	out := make(map[string]map[int]int, len(files))
	for filename, patch := range files {
		if p := patchPositions(patch); p != nil {
			out[filename] = p
		}
	}
	return out
}
