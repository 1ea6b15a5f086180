// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_7.pdf")
	data := []byte("%PDF-1.4 test")

	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", string(content), string(data))
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "config.toml")

	if err := AtomicWriteFile(path, []byte("x = 1"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("updated"), 0644); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "updated" {
		t.Errorf("Content not updated: got %q", string(content))
	}
}

func TestAtomicWriteFile_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	if err := AtomicWriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, got %d entries", len(entries))
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		input    string
		maxRunes int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 3, "hel"},
		{"héllo wörld", 8, "héllo..."},
		{"日本語テキスト", 5, "日本..."},
	}

	for _, tc := range testCases {
		if got := TruncateRunes(tc.input, tc.maxRunes); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.maxRunes, got, tc.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	testCases := []struct {
		input    string
		maxWidth int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"日本語", 6, "日本語"},
		{"日本語テキスト", 7, "日本..."},
		{"abc", 0, ""},
	}

	for _, tc := range testCases {
		if got := TruncateWidth(tc.input, tc.maxWidth); got != tc.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.input, tc.maxWidth, got, tc.want)
		}
	}
}

func TestStringWidth(t *testing.T) {
	if got := StringWidth("abc"); got != 3 {
		t.Errorf("StringWidth(abc) = %d, want 3", got)
	}
	if got := StringWidth("日本"); got != 4 {
		t.Errorf("StringWidth(日本) = %d, want 4", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
	if got := StringWidth(PadRight("a very long course title", 10)); got != 10 {
		t.Errorf("PadRight width = %d, want 10", got)
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("line one\r\n  line   two\n"); got != "line one line two" {
		t.Errorf("SingleLine = %q", got)
	}
}
