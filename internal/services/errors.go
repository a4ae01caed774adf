package services

import "errors"

// Service-level errors mapped onto API errors by the transport layer.
var (
	// ErrQuerySuperseded marks a query whose result became stale because a
	// newer query for the same dataset kind was issued before it finished.
	// Only the most recently issued query's result is ever delivered.
	ErrQuerySuperseded = errors.New("query superseded by a newer request")

	// ErrUnknownSource means no source identifier is configured for a
	// dataset kind.
	ErrUnknownSource = errors.New("no source configured for dataset kind")
)
