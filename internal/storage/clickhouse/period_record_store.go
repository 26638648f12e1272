package clickhouse

import (
	"context"
	"fmt"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/storage"
)

// PeriodRecordStore implements storage.PeriodRecordStore using ClickHouse.
type PeriodRecordStore struct {
	conn *Conn
}

// NewPeriodRecordStore creates a new PeriodRecordStore.
func NewPeriodRecordStore(conn *Conn) *PeriodRecordStore {
	return &PeriodRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PeriodRecordStore = (*PeriodRecordStore)(nil)

// InsertBulk adds records. Fails entire batch on duplicate (run_id, period_index).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *PeriodRecordStore) InsertBulk(ctx context.Context, records []*domain.PeriodRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Check input and intra-batch duplicates
	type key struct {
		runID  string
		period int
	}
	seen := make(map[key]struct{}, len(records))
	runs := make(map[string]struct{})
	for _, r := range records {
		if r == nil || r.RunID == "" || r.PeriodIndex < 1 {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.PeriodIndex}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[r.RunID] = struct{}{}
	}

	// Series are written whole, so one stored period means the run is present
	for runID := range runs {
		n, err := s.CountByRunID(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if n > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO period_records (
			run_id, scenario_id, instrument_id, period_index, rate,
			gross_balance_before_custody, custody_charge, balance_after_custody
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.RunID, r.ScenarioID, r.InstrumentID, uint32(r.PeriodIndex), r.Rate,
			r.GrossBalanceBeforeCustody, r.CustodyCharge, r.BalanceAfterCustody,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves the series of a run, ordered by period_index ASC.
func (s *PeriodRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.PeriodRecord, error) {
	query := `
		SELECT run_id, scenario_id, instrument_id, period_index, rate,
			gross_balance_before_custody, custody_charge, balance_after_custody
		FROM period_records
		WHERE run_id = ?
		ORDER BY period_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanPeriodRecords(rows)
}

// CountByRunID returns the number of stored periods of a run.
func (s *PeriodRecordStore) CountByRunID(ctx context.Context, runID string) (int, error) {
	query := `SELECT count(*) FROM period_records WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by run id: %w", err)
	}
	return int(count), nil
}

// scanPeriodRecords scans multiple rows.
func scanPeriodRecords(rows chRows) ([]*domain.PeriodRecord, error) {
	records := []*domain.PeriodRecord{}

	for rows.Next() {
		var r domain.PeriodRecord
		var periodIndex uint32

		err := rows.Scan(
			&r.RunID, &r.ScenarioID, &r.InstrumentID, &periodIndex, &r.Rate,
			&r.GrossBalanceBeforeCustody, &r.CustodyCharge, &r.BalanceAfterCustody,
		)
		if err != nil {
			return nil, fmt.Errorf("scan period record row: %w", err)
		}

		r.PeriodIndex = int(periodIndex)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period record rows: %w", err)
	}

	return records, nil
}
