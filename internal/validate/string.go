// Package validate provides centralized input validation and sanitization
// utilities for the Homebooks API.
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// NameConstraints covers short human-entered names: household names, budget
// names, income sources.
var NameConstraints = StringConstraints{
	MinLength: 1,
	MaxLength: 120,
	TrimSpace: true,
}

// DescriptionConstraints covers free-text descriptions on expenses.
var DescriptionConstraints = StringConstraints{
	MinLength: 1,
	MaxLength: 500,
	TrimSpace: true,
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if
// validation fails.
func (c StringConstraints) validate(s string) (string, error) {
	if c.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !c.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Character count, not byte count
	length := utf8.RuneCountInString(s)

	if c.MinLength > 0 && length < c.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, c.MinLength)
	}
	if c.MaxLength > 0 && length > c.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, c.MaxLength)
	}

	if c.AllowedPattern != nil && !c.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// String validates a string against the given constraints and escapes HTML
// special characters in the result, so user-entered names and descriptions
// are safe to render.
func String(s string, constraints StringConstraints) (string, error) {
	validated, err := constraints.validate(s)
	if err != nil {
		return "", err
	}
	return html.EscapeString(validated), nil
}
