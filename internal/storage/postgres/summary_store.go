package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using PostgreSQL.
type SummaryStore struct {
	pool *Pool
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(pool *Pool) *SummaryStore {
	return &SummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

const insertSummaryQuery = `
	INSERT INTO terminal_summaries (
		run_id, scenario_id, instrument_id, granularity, periods,
		gross_future_value, custody_accumulated, tax_rate, tax_due, net_future_value,
		holding_period_days, status, error
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13
	)
`

const selectSummaryColumns = `
	SELECT
		run_id, scenario_id, instrument_id, granularity, periods,
		gross_future_value, custody_accumulated, tax_rate, tax_due, net_future_value,
		holding_period_days, status, error
	FROM terminal_summaries
`

// Insert adds a new summary. Returns ErrDuplicateKey if run_id exists.
func (s *SummaryStore) Insert(ctx context.Context, sum *domain.TerminalSummary) error {
	if sum == nil || sum.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertSummaryQuery, summaryArgs(sum)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert terminal summary: %w", err)
	}
	return nil
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *SummaryStore) InsertBulk(ctx context.Context, summaries []*domain.TerminalSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	for _, sum := range summaries {
		if sum == nil || sum.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, sum := range summaries {
		batch.Queue(insertSummaryQuery, summaryArgs(sum)...)
	}

	br := tx.SendBatch(ctx, batch)
	for range summaries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert terminal summary in bulk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves a summary by run_id. Returns ErrNotFound if not exists.
func (s *SummaryStore) GetByRunID(ctx context.Context, runID string) (*domain.TerminalSummary, error) {
	row := s.pool.QueryRow(ctx, selectSummaryColumns+` WHERE run_id = $1`, runID)
	sum, err := scanSummary(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get terminal summary by run id: %w", err)
	}
	return sum, nil
}

// GetByScenario retrieves all summaries of a scenario ordered by instrument_id.
func (s *SummaryStore) GetByScenario(ctx context.Context, scenarioID string) ([]*domain.TerminalSummary, error) {
	rows, err := s.pool.Query(ctx,
		selectSummaryColumns+` WHERE scenario_id = $1 ORDER BY instrument_id ASC, run_id ASC`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("get terminal summaries by scenario: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// GetAll retrieves all summaries ordered by (scenario_id, instrument_id).
func (s *SummaryStore) GetAll(ctx context.Context) ([]*domain.TerminalSummary, error) {
	rows, err := s.pool.Query(ctx,
		selectSummaryColumns+` ORDER BY scenario_id ASC, instrument_id ASC, run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all terminal summaries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func summaryArgs(s *domain.TerminalSummary) []any {
	return []any{
		s.RunID, s.ScenarioID, s.InstrumentID, string(s.Granularity), s.Periods,
		s.GrossFutureValue, s.CustodyAccumulated, s.TaxRate, s.TaxDue, s.NetFutureValue,
		s.HoldingPeriodDays, string(s.Status), s.Error,
	}
}

// scanSummary scans a single row into a TerminalSummary.
func scanSummary(row pgx.Row) (*domain.TerminalSummary, error) {
	var s domain.TerminalSummary
	var granularity, status string

	err := row.Scan(
		&s.RunID, &s.ScenarioID, &s.InstrumentID, &granularity, &s.Periods,
		&s.GrossFutureValue, &s.CustodyAccumulated, &s.TaxRate, &s.TaxDue, &s.NetFutureValue,
		&s.HoldingPeriodDays, &status, &s.Error,
	)
	if err != nil {
		return nil, err
	}

	s.Granularity = domain.Granularity(granularity)
	s.Status = domain.RunStatus(status)
	return &s, nil
}

// scanSummaries scans multiple rows into a slice of TerminalSummary.
func scanSummaries(rows pgx.Rows) ([]*domain.TerminalSummary, error) {
	var summaries []*domain.TerminalSummary

	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan terminal summary row: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terminal summary rows: %w", err)
	}

	return summaries, nil
}
