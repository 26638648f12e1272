package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/storage"
)

func createTestSummary(runID, scenarioID, instrumentID string) *domain.TerminalSummary {
	return &domain.TerminalSummary{
		RunID:              runID,
		ScenarioID:         scenarioID,
		InstrumentID:       instrumentID,
		Granularity:        domain.GranularityMonthly,
		Periods:            36,
		GrossFutureValue:   151925.16,
		CustodyAccumulated: 746.70,
		TaxRate:            0.15,
		TaxDue:             7788.77,
		NetFutureValue:     143389.69,
		HoldingPeriodDays:  1080,
		Status:             domain.RunStatusOK,
	}
}

func TestSummaryStore_InsertAndGetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	sum := createTestSummary("run-001", "manutencao", "TESOURO_SELIC_MONTHLY")
	require.NoError(t, store.Insert(ctx, sum))

	got, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, sum, got)
}

func TestSummaryStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	sum := createTestSummary("run-dup", "aperto", "LCI")
	require.NoError(t, store.Insert(ctx, sum))

	err := store.Insert(ctx, sum)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSummaryStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSummaryStore(pool).GetByRunID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummaryStore_FailedRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	failed := &domain.TerminalSummary{
		RunID:        "run-failed",
		ScenarioID:   "crash",
		InstrumentID: "LCI",
		Granularity:  domain.GranularityMonthly,
		Status:       domain.RunStatusFailed,
		Error:        "period 13: rate outside conversion domain: annual rate -1.35",
	}
	require.NoError(t, store.Insert(ctx, failed))

	got, err := store.GetByRunID(ctx, "run-failed")
	require.NoError(t, err)
	assert.True(t, got.Failed())
	assert.Equal(t, failed.Error, got.Error)
}

func TestSummaryStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	require.NoError(t, store.Insert(ctx, createTestSummary("run-b", "aperto", "LCI")))

	err := store.InsertBulk(ctx, []*domain.TerminalSummary{
		createTestSummary("run-a", "aperto", "CDB_CDI"),
		createTestSummary("run-b", "aperto", "LCI"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByRunID(ctx, "run-a")
	assert.ErrorIs(t, err, storage.ErrNotFound, "batch must roll back")
}

func TestSummaryStore_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TerminalSummary{
		createTestSummary("r1", "manutencao", "TESOURO_SELIC"),
		createTestSummary("r2", "aperto", "POUPANCA"),
		createTestSummary("r3", "aperto", "CDB_CDI"),
		createTestSummary("r4", "afrouxamento", "LCI"),
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	ids := []string{all[0].RunID, all[1].RunID, all[2].RunID, all[3].RunID}
	assert.Equal(t, []string{"r4", "r3", "r2", "r1"}, ids)

	aperto, err := store.GetByScenario(ctx, "aperto")
	require.NoError(t, err)
	require.Len(t, aperto, 2)
	assert.Equal(t, "CDB_CDI", aperto[0].InstrumentID)
}
