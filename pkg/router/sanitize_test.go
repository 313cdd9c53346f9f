package router

import (
	"errors"
	"strings"
	"testing"

	"github.com/propertytek/rentbot/pkg/domain"
)

func TestSanitizeQuery_SizeLimit(t *testing.T) {
	limit := DefaultMaxQuerySize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeQuery(strings.Repeat("a", tt.inputSize), 0)
			if tt.wantErr {
				if !errors.Is(err, ErrQueryTooLarge) || !errors.Is(err, domain.ErrInvalidTurn) {
					t.Errorf("expected ErrQueryTooLarge wrapped in ErrInvalidTurn, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSanitizeQuery_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "2 bedroom in Austin", "2 bedroom in Austin"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mAustin\x1b[0m", "[31mAustin[0m"},
		{"Null Byte", "Dal\x00las", "Dallas"},
		{"Bell", "Hi\x07", "Hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeQuery(tt.input, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeQuery_InvalidUTF8(t *testing.T) {
	_, err := SanitizeQuery("bad \xff byte", 0)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSanitizeQuery_CustomLimit(t *testing.T) {
	if _, err := SanitizeQuery("12345678901", 10); err == nil {
		t.Error("expected error for input over 10 bytes")
	}
	if _, err := SanitizeQuery("12345", 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
