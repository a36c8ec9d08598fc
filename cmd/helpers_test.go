package cmd

import (
	"errors"
	"testing"

	"github.com/inovacc/reposync/internal/core"
)

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 3, "abcdef"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.expected {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.expected)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length", input: "hello", maxLen: 5, expected: "hello"},
		{name: "truncated", input: "hello world", maxLen: 8, expected: "hello..."},
		{name: "tiny limit", input: "hello", maxLen: 2, expected: "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestColumnWidth(t *testing.T) {
	if got := columnWidth("NAME", []string{"a", "abcdef"}, 40); got != 6 {
		t.Errorf("columnWidth() = %d, want 6", got)
	}

	if got := columnWidth("NAME", []string{"a"}, 40); got != 4 {
		t.Errorf("columnWidth() = %d, want header width 4", got)
	}

	if got := columnWidth("NAME", []string{"abcdefghij"}, 5); got != 5 {
		t.Errorf("columnWidth() = %d, want cap 5", got)
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"short":                "****",
		"ghp_abcdefghijklmnop": "ghp_****",
	}

	for input, expected := range tests {
		if got := maskToken(input); got != expected {
			t.Errorf("maskToken(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"sync aborted", &core.SyncError{State: core.StateRulesLoaded, Err: errors.New("x")}, 1},
		{"config problem", &configError{err: errors.New("bad backend")}, 2},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
