// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n  ", ""},
		{"trimmed", "  hello  ", "hello"},
		{"inner newline kept", "line one\nline two\n", "line one\nline two"},
		{"crlf", "a\r\nb", "a\nb"},
		{"nfc", "e\u0301cole", "\u00e9cole"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeInput(tc.in); got != tc.want {
				t.Errorf("NormalizeInput(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 2, "he"},
		{"日本語テキスト", 7, "日本..."},
	}

	for _, tc := range tests {
		if got := TruncateWidth(tc.in, tc.width); got != tc.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("abcdefgh", 6); got != "abc..." {
		t.Errorf("TruncateRunes() = %q", got)
	}
	if got := TruncateRunes("abc", 6); got != "abc" {
		t.Errorf("TruncateRunes() = %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight() = %q", got)
	}
	if got := StringWidth("日本"); got != 4 {
		t.Errorf("StringWidth() = %d, want 4", got)
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "course"); got != "1 course" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(3, "course"); got != "3 courses" {
		t.Errorf("Plural(3) = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n  \nfirst\nsecond"); got != "first" {
		t.Errorf("FirstLine() = %q", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	if err := AtomicWriteFile(path, []byte("one"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := AtomicWriteFile(path, []byte("two"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want two", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}
