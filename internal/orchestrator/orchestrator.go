// Package orchestrator runs every (scenario, instrument) pair and merges the
// outcomes into one ordered result table.
// It coordinates: validation → simulation → merge → persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/instrument"
	"fixed-income-lab/internal/logger"
	"fixed-income-lab/internal/observability"
	"fixed-income-lab/internal/simulation"
	"fixed-income-lab/internal/storage"
)

// Orchestrator errors
var (
	ErrDuplicateRow  = errors.New("duplicate (scenario, instrument) row")
	ErrNoInstruments = errors.New("no instruments to run")
	ErrNoScenarios   = errors.New("no scenarios to run")
)

// Orchestrator coordinates a batch of simulation runs.
type Orchestrator struct {
	// Inputs
	scenarios   []domain.Scenario
	instruments []instrument.Instrument
	config      domain.Config

	// Stores
	summaryStore      storage.SummaryStore
	periodRecordStore storage.PeriodRecordStore

	// Options
	workers    int
	keepSeries bool
	log        logger.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Scenarios and instruments to cross. Instruments default to instrument.All().
	Scenarios   []domain.Scenario
	Instruments []instrument.Instrument
	Config      domain.Config

	// Optional stores
	SummaryStore      storage.SummaryStore
	PeriodRecordStore storage.PeriodRecordStore

	// Options
	Workers    int  // concurrent runs, defaults to GOMAXPROCS
	KeepSeries bool // keep per-period records in the result table
	Logger     logger.Logger
	Metrics    *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	instruments := opts.Instruments
	if instruments == nil {
		instruments = instrument.All()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Orchestrator{
		scenarios:         opts.Scenarios,
		instruments:       instruments,
		config:            opts.Config,
		summaryStore:      opts.SummaryStore,
		periodRecordStore: opts.PeriodRecordStore,
		workers:           workers,
		keepSeries:        opts.KeepSeries,
		log:               log,
		metrics:           opts.Metrics,
		now:               time.Now,
	}
}

// Run executes the full batch.
// Phases:
//  1. Validate config, scenarios and instruments
//  2. Simulate each (scenario, instrument) pair
//  3. Merge rows in (scenario_id, instrument_id) order
//  4. Persist summaries
//
// Configuration problems abort before any run with domain.ErrConfiguration.
// A run that fails on its own inputs becomes a FAILED row and does not stop the batch.
func (o *Orchestrator) Run(ctx context.Context) (*domain.ResultTable, error) {
	start := o.now()
	table, err := o.run(ctx)

	status := "OK"
	if err != nil {
		status = "ERROR"
	}
	o.metrics.RecordBatch(status, o.now().Sub(start).Seconds(), o.now().Unix())
	return table, err
}

func (o *Orchestrator) run(ctx context.Context) (*domain.ResultTable, error) {
	// Phase 1: Validation
	if err := o.validate(); err != nil {
		return nil, err
	}
	o.log.Infof("Phase 1: %d scenarios x %d instruments validated", len(o.scenarios), len(o.instruments))

	// Phase 2: Simulation
	o.log.Infof("Phase 2: Running %d simulations (%d workers)...", len(o.scenarios)*len(o.instruments), o.workers)
	rows, err := o.runSimulations(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (simulation) failed: %w", err)
	}

	// Phase 3: Merge
	table, err := merge(rows)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (merge) failed: %w", err)
	}
	failed := len(table.Failed())
	o.log.Infof("Phase 3: %d rows (%d failed)", table.Len(), failed)

	// Phase 4: Persistence
	if o.summaryStore != nil {
		stored, err := o.persist(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (persist) failed: %w", err)
		}
		o.log.Infof("Phase 4: Stored %d summaries", stored)
	}

	for i := range table.Rows {
		row := &table.Rows[i]
		if row.State.CanTransition(domain.RunStateReported) {
			row.State = domain.RunStateReported
		}
	}

	return table, nil
}

// validate checks everything that would make the whole batch meaningless.
func (o *Orchestrator) validate() error {
	if err := o.config.Validate(); err != nil {
		return err
	}
	if len(o.scenarios) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, ErrNoScenarios)
	}
	if len(o.instruments) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, ErrNoInstruments)
	}

	seenScenarios := make(map[string]struct{}, len(o.scenarios))
	for _, s := range o.scenarios {
		if err := s.Validate(o.config.HorizonYears); err != nil {
			return err
		}
		if _, dup := seenScenarios[s.ID]; dup {
			return fmt.Errorf("%w: scenario %s listed twice", domain.ErrConfiguration, s.ID)
		}
		seenScenarios[s.ID] = struct{}{}
	}

	seenInstruments := make(map[string]struct{}, len(o.instruments))
	for _, i := range o.instruments {
		if _, dup := seenInstruments[i.ID()]; dup {
			return fmt.Errorf("%w: instrument %s listed twice", domain.ErrConfiguration, i.ID())
		}
		seenInstruments[i.ID()] = struct{}{}
	}
	return nil
}

// runSimulations runs every pair with at most o.workers in flight.
// Each run writes only its own slot.
func (o *Orchestrator) runSimulations(ctx context.Context) ([]domain.ResultRow, error) {
	runner := simulation.NewRunner(simulation.RunnerOptions{
		PeriodRecordStore: o.periodRecordStore,
		KeepSeries:        o.keepSeries,
		Metrics:           o.metrics,
	})

	rows := make([]domain.ResultRow, len(o.scenarios)*len(o.instruments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for si, s := range o.scenarios {
		for ii, inst := range o.instruments {
			slot := si*len(o.instruments) + ii
			g.Go(func() error {
				res, err := runner.Run(gctx, s, inst, o.config)
				if res == nil {
					return fmt.Errorf("simulate %s/%s: %w", s.ID, inst.ID(), err)
				}
				if err != nil {
					o.log.Warnw("run failed",
						"scenario", s.ID,
						"instrument", inst.ID(),
						"run_id", res.Summary.RunID,
						"error", err,
					)
				}
				rows[slot] = domain.ResultRow{Summary: res.Summary, State: res.State, Series: res.Series}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// merge orders rows by (scenario_id, instrument_id) and rejects duplicate keys.
func merge(rows []domain.ResultRow) (*domain.ResultTable, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Summary.Key().Less(rows[j].Summary.Key())
	})
	for i := 1; i < len(rows); i++ {
		if rows[i].Summary.Key() == rows[i-1].Summary.Key() {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateRow,
				rows[i].Summary.ScenarioID, rows[i].Summary.InstrumentID)
		}
	}
	return &domain.ResultTable{Rows: rows}, nil
}

// persist stores all summaries. Rows stored by an earlier identical batch are skipped.
func (o *Orchestrator) persist(ctx context.Context, table *domain.ResultTable) (int, error) {
	summaries := make([]*domain.TerminalSummary, len(table.Rows))
	for i := range table.Rows {
		summaries[i] = &table.Rows[i].Summary
	}

	err := o.summaryStore.InsertBulk(ctx, summaries)
	if err == nil {
		return len(summaries), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return 0, err
	}

	// Fall back to row-by-row inserts
	stored := 0
	for _, s := range summaries {
		if err := o.summaryStore.Insert(ctx, s); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return stored, fmt.Errorf("store summary %s/%s: %w", s.ScenarioID, s.InstrumentID, err)
		}
		stored++
	}
	return stored, nil
}
