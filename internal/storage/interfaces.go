package storage

import (
	"context"

	"fixed-income-lab/internal/domain"
)

// SummaryStore persists terminal summaries, one row per run.
// PRIMARY KEY: run_id. Append-only.
type SummaryStore interface {
	// Insert adds a summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.TerminalSummary) error

	// InsertBulk adds multiple summaries atomically. Fails the whole batch on any duplicate.
	InsertBulk(ctx context.Context, summaries []*domain.TerminalSummary) error

	// GetByRunID retrieves a summary. Returns ErrNotFound if missing.
	GetByRunID(ctx context.Context, runID string) (*domain.TerminalSummary, error)

	// GetByScenario returns the summaries of a scenario ordered by instrument_id ASC.
	GetByScenario(ctx context.Context, scenarioID string) ([]*domain.TerminalSummary, error)

	// GetAll returns every summary ordered by (scenario_id, instrument_id) ASC.
	GetAll(ctx context.Context) ([]*domain.TerminalSummary, error)
}

// PeriodRecordStore persists per-period balance series.
// PRIMARY KEY: (run_id, period_index). Append-only.
type PeriodRecordStore interface {
	// InsertBulk adds the records of one or more runs atomically.
	// Returns ErrDuplicateKey if any (run_id, period_index) exists.
	InsertBulk(ctx context.Context, records []*domain.PeriodRecord) error

	// GetByRunID returns the series of a run ordered by period_index ASC.
	// Returns an empty slice for unknown runs.
	GetByRunID(ctx context.Context, runID string) ([]*domain.PeriodRecord, error)

	// CountByRunID returns the number of stored periods of a run.
	CountByRunID(ctx context.Context, runID string) (int, error)
}
