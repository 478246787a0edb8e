package search

import (
	"fmt"
)

// AuthError means a credential exchange failed. It is fatal to the calling client's
// search but never to the aggregate request.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SearchError means an upstream returned a non-2xx status, failed in transport or
// returned a body that could not be parsed.
type SearchError struct {
	Source SourceName
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search %s: status %d: %s", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search %s: %s", e.Source, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// PersistenceError means a storage write failed, it is reported and never surfaced.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FilterError means the relevance service failed, the caller falls back to unfiltered results.
type FilterError struct {
	Err error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("relevance filter: %s", e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}
