package client

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New when the configuration is unusable.
var ErrInvalidConfig = errors.New("invalid client config")

// SearchError represents a failed search request with additional context.
type SearchError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("search %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var se *SearchError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ClassOf returns the error class carried by err, or "".
func ClassOf(err error) ErrorClass {
	var se *SearchError
	if errors.As(err, &se) {
		return se.ErrorClass
	}
	return ""
}
