package router

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/propertytek/rentbot/pkg/domain"
)

// DefaultMaxQuerySize is 4KB.
const DefaultMaxQuerySize = 4096

var (
	ErrQueryTooLarge = errors.New("query exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("query contains invalid UTF-8 sequences")
)

// SanitizeQuery enforces a size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected rather than truncated.
func SanitizeQuery(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxQuerySize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: %w: size=%d limit=%d", domain.ErrInvalidTurn, ErrQueryTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidTurn, ErrInvalidUTF8)
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
