// Package util provides shared utility functions.
package util

import "github.com/google/uuid"

// DefaultShortIDLength is the number of characters taken from a UUID v4 to
// form the short-id segment of an execution log filename
// (YYYY-MM-DDTHH-MM-SS-{ABBR}-{short-id}.log).
const DefaultShortIDLength = 8

// NewExecutionID returns a fresh UUID v4 string identifying one agent
// dispatch, carried on the execution context and used as the source for
// the log file's short-id suffix.
func NewExecutionID() string {
	return uuid.New().String()
}

// ShortID returns the first n characters of id. If n is 0 or negative,
// DefaultShortIDLength is used. If id is shorter than n, id is returned
// unchanged.
func ShortID(id string, n int) string {
	if n <= 0 {
		n = DefaultShortIDLength
	}
	if len(id) <= n {
		return id
	}
	return id[:n]
}
