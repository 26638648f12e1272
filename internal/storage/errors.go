package storage

import "errors"

// Errors shared by the memory, Postgres and ClickHouse stores.
// Summaries and period records are write-once per run_id.
var (
	// ErrNotFound is returned when no record exists for a run_id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a run_id (or run_id, period_index) is already stored.
	// Re-running an identical batch produces the same run ids, so callers usually skip it.
	ErrDuplicateKey = errors.New("duplicate key: run already stored")

	// ErrInvalidInput is returned for records missing their key fields.
	ErrInvalidInput = errors.New("invalid input")
)
