package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/instrument"
	"fixed-income-lab/internal/logger"
	"fixed-income-lab/internal/observability"
	"fixed-income-lab/internal/storage"
	"fixed-income-lab/internal/storage/memory"
)

func TestOrchestrator_Run_DefaultBatch(t *testing.T) {
	ctx := context.Background()

	orch := New(Options{
		Scenarios: domain.DefaultScenarios(),
		Config:    domain.DefaultConfig(),
		Workers:   4,
	})

	table, err := orch.Run(ctx)
	require.NoError(t, err)

	// one row per pair
	assert.Equal(t, 3*6, table.Len())
	assert.Empty(t, table.Failed())

	seen := make(map[domain.SummaryKey]struct{})
	for i, row := range table.Rows {
		key := row.Summary.Key()
		_, dup := seen[key]
		assert.False(t, dup, "duplicate row %v", key)
		seen[key] = struct{}{}

		if i > 0 {
			assert.True(t, table.Rows[i-1].Summary.Key().Less(key), "rows out of order at %d", i)
		}
		assert.Equal(t, domain.RunStateReported, row.State)
		assert.Empty(t, row.Series)
	}

	assert.Equal(t, []string{"afrouxamento", "aperto", "manutencao"}, table.ScenarioIDs())
}

func TestOrchestrator_Run_OrderIndependentOfWorkers(t *testing.T) {
	ctx := context.Background()

	var reference []domain.TerminalSummary
	for _, workers := range []int{1, 2, 7, 32} {
		table, err := New(Options{
			Scenarios: domain.DefaultScenarios(),
			Config:    domain.DefaultConfig(),
			Workers:   workers,
		}).Run(ctx)
		require.NoError(t, err)

		if reference == nil {
			reference = table.Summaries()
			continue
		}
		assert.Equal(t, reference, table.Summaries(), "workers=%d", workers)
	}
}

func TestOrchestrator_Run_FailedRowFlagged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)

	crash := domain.Scenario{ID: "crash", Years: []domain.YearRates{
		{Year: 2025, Selic: 0.15, IPCA: 0.05},
		{Year: 2026, Selic: -1.5, IPCA: 0.05},
		{Year: 2027, Selic: 0.15, IPCA: 0.05},
	}}

	table, err := New(Options{
		Scenarios: []domain.Scenario{domain.ScenarioConfigManutencao, crash},
		Config:    domain.DefaultConfig(),
		Logger:    logger.New(zap.New(core)),
	}).Run(ctx)
	require.NoError(t, err, "per-run failures do not abort the batch")
	assert.Equal(t, 12, table.Len())

	failed := table.Failed()
	// Selic-driven instruments break on the negative year, fixed-rate and IPCA-linked ones do not
	failedIDs := make([]string, 0, len(failed))
	for _, row := range failed {
		assert.Equal(t, "crash", row.Summary.ScenarioID)
		assert.Equal(t, domain.RunStateFailed, row.State)
		assert.NotEmpty(t, row.Summary.Error)
		failedIDs = append(failedIDs, row.Summary.InstrumentID)
	}
	assert.Equal(t, []string{"CDB_CDI", "LCI", "POUPANCA", "TESOURO_SELIC"}, failedIDs)

	prefixado, ok := table.Get(domain.SummaryKey{ScenarioID: "crash", InstrumentID: "TESOURO_PREFIXADO"})
	require.True(t, ok)
	assert.Equal(t, domain.RunStatusOK, prefixado.Summary.Status)

	assert.Equal(t, 4, logs.FilterMessage("run failed").Len())
}

func TestOrchestrator_Run_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	selic, err := instrument.FromKind(domain.InstrumentTesouroSelic)
	require.NoError(t, err)

	badConfig := domain.DefaultConfig()
	badConfig.InitialCapital = 0

	shortHorizon := domain.DefaultConfig()
	shortHorizon.HorizonYears = 4

	tests := []struct {
		name string
		opts Options
	}{
		{"invalid config", Options{Scenarios: domain.DefaultScenarios(), Config: badConfig}},
		{"coverage shorter than horizon", Options{Scenarios: domain.DefaultScenarios(), Config: shortHorizon}},
		{"no scenarios", Options{Config: domain.DefaultConfig()}},
		{"no instruments", Options{Scenarios: domain.DefaultScenarios(), Config: domain.DefaultConfig(), Instruments: []instrument.Instrument{}}},
		{"duplicate scenario", Options{
			Scenarios: []domain.Scenario{domain.ScenarioConfigAperto, domain.ScenarioConfigAperto},
			Config:    domain.DefaultConfig(),
		}},
		{"duplicate instrument", Options{
			Scenarios:   domain.DefaultScenarios(),
			Config:      domain.DefaultConfig(),
			Instruments: []instrument.Instrument{selic, selic},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewSummaryStore()
			tt.opts.SummaryStore = store

			_, err := New(tt.opts).Run(ctx)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			all, _ := store.GetAll(ctx)
			assert.Empty(t, all, "nothing runs on configuration errors")
		})
	}
}

func TestOrchestrator_Run_GranularityVariants(t *testing.T) {
	daily, err := instrument.FromKind(domain.InstrumentTesouroSelic)
	require.NoError(t, err)
	monthly, err := daily.WithGranularity(domain.GranularityMonthly)
	require.NoError(t, err)

	table, err := New(Options{
		Scenarios:   []domain.Scenario{domain.ScenarioConfigManutencao},
		Instruments: []instrument.Instrument{daily, monthly},
		Config:      domain.DefaultConfig(),
	}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "TESOURO_SELIC", table.Rows[0].Summary.InstrumentID)
	assert.Equal(t, 756, table.Rows[0].Summary.Periods)
	assert.Equal(t, "TESOURO_SELIC_MONTHLY", table.Rows[1].Summary.InstrumentID)
	assert.Equal(t, 36, table.Rows[1].Summary.Periods)
}

func TestOrchestrator_Run_PersistsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	summaries := memory.NewSummaryStore()
	records := memory.NewPeriodRecordStore()

	opts := Options{
		Scenarios:         domain.DefaultScenarios(),
		Config:            domain.DefaultConfig(),
		SummaryStore:      summaries,
		PeriodRecordStore: records,
		KeepSeries:        true,
	}

	table, err := New(opts).Run(ctx)
	require.NoError(t, err)

	stored, err := summaries.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, table.Len())
	for i, s := range stored {
		assert.Equal(t, table.Rows[i].Summary, *s)
	}

	row := table.Rows[0]
	assert.Len(t, row.Series, row.Summary.Periods)
	n, err := records.CountByRunID(ctx, row.Summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, row.Summary.Periods, n)

	// second identical batch skips existing rows
	_, err = New(opts).Run(ctx)
	require.NoError(t, err)
	again, err := summaries.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, again, table.Len())
}

type failingSummaryStore struct {
	storage.SummaryStore
}

func (failingSummaryStore) InsertBulk(context.Context, []*domain.TerminalSummary) error {
	return errors.New("connection reset")
}

func TestOrchestrator_Run_StoreFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg, "")

	_, err := New(Options{
		Scenarios:    domain.DefaultScenarios(),
		Config:       domain.DefaultConfig(),
		SummaryStore: failingSummaryStore{},
		Metrics:      m,
	}).Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("ERROR")))
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{
		Scenarios: domain.DefaultScenarios(),
		Config:    domain.DefaultConfig(),
	}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerge_RejectsDuplicates(t *testing.T) {
	row := domain.ResultRow{Summary: domain.TerminalSummary{ScenarioID: "a", InstrumentID: "LCI"}}
	_, err := merge([]domain.ResultRow{row, row})
	assert.ErrorIs(t, err, ErrDuplicateRow)
}
