// Package errors provides a small fluent builder for enriching sentinel
// errors with structured, safe-for-logging context, on top of
// github.com/cockroachdb/errors.
package errors

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder provides a fluent API for constructing enriched errors.
type ErrorBuilder struct {
	err       error
	hints     []string
	context   map[string]interface{}
	sentinels []error
}

// Build creates a new ErrorBuilder from a base error.
//
// If err is a leaf error (no wrapped cause), it is treated as a sentinel and
// automatically marked so that errors.Is(result, err) succeeds later.
func Build(err error) *ErrorBuilder {
	b := &ErrorBuilder{err: err}
	if err != nil && errors.UnwrapOnce(err) == nil {
		b.sentinels = append(b.sentinels, err)
	}
	return b
}

// WithHint adds a user-facing hint to the error.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

// WithExplanation attaches a detailed, non-safe explanation to the error.
func (b *ErrorBuilder) WithExplanation(explanation string) *ErrorBuilder {
	b.err = errors.WithDetail(b.err, explanation)
	return b
}

// WithContext adds a safe key/value pair to the error. Safe context is
// included in errors.Safe() redaction output and is fine to log verbatim.
func (b *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]interface{})
	}
	b.context[key] = value
	return b
}

// WithCause wraps another error as the cause chain of this error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	if cause == nil {
		return b
	}
	// The wrap below replaces b.err with a non-leaf error; re-mark the
	// original sentinel explicitly since UnwrapOnce is no longer nil.
	b.sentinels = append(b.sentinels, b.err)
	b.err = errors.Wrap(cause, b.err.Error())
	return b
}

// WithSentinel marks the error with an additional sentinel for errors.Is().
func (b *ErrorBuilder) WithSentinel(sentinel error) *ErrorBuilder {
	b.sentinels = append(b.sentinels, sentinel)
	return b
}

// Err finalizes and returns the enriched error.
func (b *ErrorBuilder) Err() error {
	if b.err == nil {
		return nil
	}

	err := b.err

	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}

	if len(b.context) > 0 {
		keys := make([]string, 0, len(b.context))
		for k := range b.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var formatParts []string
		var safeValues []interface{}
		for _, key := range keys {
			formatParts = append(formatParts, key+"=%s")
			safeValues = append(safeValues, errors.Safe(b.context[key]))
		}
		err = errors.WithSafeDetails(err, strings.Join(formatParts, " "), safeValues...)
	}

	for _, sentinel := range b.sentinels {
		err = errors.Mark(err, sentinel)
	}

	return err
}
