// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	caseBoundary  = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
)

// Normalize repairs one raw delta so model output reads as prose:
//
//  1. literal `\n` becomes a newline
//  2. literal `\t` becomes two spaces
//  3. whitespace runs collapse to one space
//  4. `***` becomes `**`, repeated until none is left
//  5. a space is inserted where a lowercase letter meets an uppercase one
//
// The result is trimmed. Steps 3 and 1 interact: escaped newlines survive
// only as separators, matching what the chat view has always rendered.
func Normalize(delta string) string {
	s := strings.ReplaceAll(delta, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "  ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	for strings.Contains(s, "***") {
		s = strings.ReplaceAll(s, "***", "**")
	}
	s = caseBoundary.ReplaceAllString(s, "$1 $2")
	return strings.TrimSpace(s)
}

// Join appends an already normalized delta to the current text with a single
// separating space. Both sides are trimmed and free of `***`, and the space
// keeps either rule from matching across the seam, so the result equals
// normalizing the whole concatenation again.
func Join(prev, delta string) string {
	switch {
	case delta == "":
		return prev
	case prev == "":
		return delta
	}
	return prev + " " + delta
}
