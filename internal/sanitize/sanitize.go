// Package sanitize cleans inbound strings before they reach the dispatcher.
// Transport adapters (HTTP, MCP, CLI) run action names through it so that
// oversized, malformed, or control-character-laden input is rejected or
// stripped at the edge.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxActionSize is 4KB (conservative default)
	DefaultMaxActionSize = 4096
	// EnvMaxActionSize is the environment variable to override the default
	EnvMaxActionSize = "ESPALIER_MAX_ACTION_SIZE"
)

var (
	ErrActionTooLarge = errors.New("action exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("action contains invalid UTF-8 sequences")
)

// ActionName cleans an inbound action name by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters.
func ActionName(input string) (string, error) {
	// 1. Enforce size limit
	limit := maxActionSize()
	if len(input) > limit {
		// We explicitly reject rather than truncate to ensure deterministic matching.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrActionTooLarge, len(input), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// 3. Strip control characters
	// We preserve:
	// - Newline (\n)
	// - Tab (\t)
	// - Carriage Return (\r) - treated as whitespace
	// We remove:
	// - ANSI codes (ESC), NULL, BEL, etc.
	// This prevents log poisoning and terminal corruption.

	// Fast path: if no control chars, return as is.
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

	// Slow path: build clean string
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

func maxActionSize() int {
	if val := os.Getenv(EnvMaxActionSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxActionSize
}
