package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixed-income-lab/internal/domain"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Options{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.SummariesDriver)
	assert.Equal(t, "memory", b.PeriodsDriver)

	s := &domain.TerminalSummary{RunID: "r1", ScenarioID: "s", InstrumentID: "LCI", Status: domain.RunStatusOK}
	require.NoError(t, b.Summaries.Insert(ctx, s))

	got, err := b.Summaries.GetByRunID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "LCI", got.InstrumentID)

	n, err := b.Periods.CountByRunID(ctx, "r1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_BadDSN(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{PostgresDSN: "postgres://%zz"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{ClickhouseDSN: "http://localhost:9000/lab"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{ClickhouseDSN: "http://localhost:9000/lab", Migrate: true})
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	calls := 0
	b := &Backend{closers: []func(){func() { calls++ }}}
	b.Close()
	b.Close()
	assert.Equal(t, 1, calls)
}
