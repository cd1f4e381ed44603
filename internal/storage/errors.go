package storage

import "errors"

// Store errors shared by the memory, postgres and clickhouse backends.
var (
	// ErrNotFound means no run, wallet score or snapshot matched the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a transaction id, run id or
	// (run, wallet) pair is already stored. Stored rows are never updated.
	ErrDuplicateKey = errors.New("duplicate key: stored records are immutable")

	// ErrInvalidInput is returned for nil records or empty identifiers.
	ErrInvalidInput = errors.New("invalid input")
)
