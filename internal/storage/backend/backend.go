// Package backend selects the result stores for a batch: Postgres for
// summaries and ClickHouse for period series when DSNs are given, memory otherwise.
package backend

import (
	"context"
	"fmt"

	"fixed-income-lab/internal/logger"
	"fixed-income-lab/internal/observability"
	"fixed-income-lab/internal/storage"
	chstore "fixed-income-lab/internal/storage/clickhouse"
	"fixed-income-lab/internal/storage/memory"
	"fixed-income-lab/internal/storage/migrations"
	pgstore "fixed-income-lab/internal/storage/postgres"
)

// Options configures Open.
type Options struct {
	PostgresDSN   string // empty = in-memory summaries
	ClickhouseDSN string // empty = in-memory period records
	Migrate       bool   // apply embedded migrations after connecting

	Logger  logger.Logger
	Metrics *observability.Metrics
}

// Backend holds the opened stores.
type Backend struct {
	Summaries storage.SummaryStore
	Periods   storage.PeriodRecordStore

	SummariesDriver string
	PeriodsDriver   string

	closers []func()
}

// Open connects the configured stores. On error everything opened so far is closed.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	b := &Backend{}

	if opts.PostgresDSN == "" {
		b.Summaries = memory.NewSummaryStore()
		b.SummariesDriver = "memory"
	} else {
		pool, err := pgstore.NewPoolWithOptions(ctx, opts.PostgresDSN, pgstore.PoolOptions{
			ApplicationName: "fixed-income-lab",
			Metrics:         opts.Metrics,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		if opts.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
			log.Infow("postgres migrations applied", "files", applied)
		}
		b.Summaries = pgstore.NewSummaryStore(pool)
		b.SummariesDriver = "postgres"
	}

	if opts.ClickhouseDSN == "" {
		b.Periods = memory.NewPeriodRecordStore()
		b.PeriodsDriver = "memory"
		return b, nil
	}

	var (
		conn *chstore.Conn
		err  error
	)
	if opts.Migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, opts.ClickhouseDSN)
		if err == nil {
			log.Infow("clickhouse migrations applied")
		}
	} else {
		conn, err = chstore.NewConn(ctx, opts.ClickhouseDSN)
	}
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	b.closers = append(b.closers, func() { conn.Close() })
	b.Periods = chstore.NewPeriodRecordStore(conn)
	b.PeriodsDriver = "clickhouse"

	return b, nil
}

// Close releases connections in reverse open order.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
