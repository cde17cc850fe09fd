package form

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailPattern is a basic sanity check: something@domain.tld.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsNotEmpty reports whether s contains anything besides whitespace.
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// HasMinLength reports whether s has at least n characters.
func HasMinLength(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}

// HasMaxLength reports whether s has at most n characters.
func HasMaxLength(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// IsEqualToOtherValue reports whether a equals b.
func IsEqualToOtherValue[T comparable](a, b T) bool {
	return a == b
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Rule is a single validation rule over a whole input value.
type Rule[T any] struct {
	// Field names the input the rule is about. Informational only.
	Field string

	// Message is reported when Valid returns false.
	Message string

	// Valid reports whether the input satisfies the rule.
	Valid func(T) bool
}

// Rules is an ordered rule set.
type Rules[T any] []Rule[T]

// Check returns the message of every violated rule, in rule order, or nil
// if the input is valid.
func (rs Rules[T]) Check(v T) []string {
	var msgs []string
	for _, r := range rs {
		if !r.Valid(v) {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

// Violations is Check with field names attached.
func (rs Rules[T]) Violations(v T) []ValidationError {
	var errs []ValidationError
	for _, r := range rs {
		if !r.Valid(v) {
			errs = append(errs, ValidationError{Field: r.Field, Message: r.Message})
		}
	}
	return errs
}
