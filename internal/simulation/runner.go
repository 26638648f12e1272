// Package simulation runs one instrument over one scenario, period by period.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/idhash"
	"fixed-income-lab/internal/instrument"
	"fixed-income-lab/internal/observability"
	"fixed-income-lab/internal/rates"
	"fixed-income-lab/internal/storage"
	"fixed-income-lab/internal/tax"
)

// Runner errors
var (
	ErrInvalidTransition = errors.New("invalid run state transition")
	ErrNonFiniteBalance  = errors.New("balance is not finite")
)

// Result is the outcome of one (scenario, instrument) run.
type Result struct {
	Summary domain.TerminalSummary
	Series  []*domain.PeriodRecord // nil unless series are kept
	State   domain.RunState
}

// Runner executes simulations for (scenario, instrument) pairs.
// A Runner holds no per-run state and is safe for concurrent use.
type Runner struct {
	periodRecordStore storage.PeriodRecordStore
	keepSeries        bool
	metrics           *observability.Metrics
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	PeriodRecordStore storage.PeriodRecordStore // optional, persists the series of OK runs
	KeepSeries        bool                      // return the series in Result
	Metrics           *observability.Metrics    // optional
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		periodRecordStore: opts.PeriodRecordStore,
		keepSeries:        opts.KeepSeries,
		metrics:           opts.Metrics,
	}
}

// Run simulates inst over scenario under cfg.
// Steps:
//  1. Resolve periods and per-period custody rate
//  2. For each period: grow the balance, then charge custody on the grown balance
//  3. Compute gross value, holding days and income tax
//  4. Persist the period series
//
// A rate domain error fails only this run: the returned Result carries a FAILED
// summary and the error is returned alongside it. cfg must already be validated.
func (r *Runner) Run(ctx context.Context, scenario domain.Scenario, inst instrument.Instrument, cfg domain.Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	run := newRun(scenario, inst, cfg)

	res, err := r.simulate(run, scenario, inst, cfg)
	if err != nil {
		run.fail(err)
		r.record(inst, run, start)
		return run.result(nil), err
	}

	if r.periodRecordStore != nil && len(res) > 0 {
		if err := r.periodRecordStore.InsertBulk(ctx, res); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("persist period records %s: %w", run.summary.RunID, err)
		}
	}

	r.record(inst, run, start)
	if !r.keepSeries {
		res = nil
	}
	return run.result(res), nil
}

// simulate drives the run through ACCUMULATING and FINALIZED.
func (r *Runner) simulate(run *runState, scenario domain.Scenario, inst instrument.Instrument, cfg domain.Config) ([]*domain.PeriodRecord, error) {
	if err := run.transition(domain.RunStateAccumulating); err != nil {
		return nil, err
	}

	ppy := inst.PeriodsPerYear(cfg)
	periods := inst.Periods(cfg)

	custodyRate := 0.0
	if inst.CustodyApplicable {
		var err error
		custodyRate, err = tax.CustodyRate(cfg.CustodyAnnualRate, ppy)
		if err != nil {
			return nil, err
		}
	}

	// series is always built so it can be persisted; dropped later if not kept
	series := make([]*domain.PeriodRecord, 0, periods)
	balance := cfg.InitialCapital
	gross := cfg.InitialCapital // compounds with no custody taken out
	custodyTotal := 0.0

	for p := 1; p <= periods; p++ {
		rate, err := inst.PeriodRate(scenario, p, cfg)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", p, err)
		}

		grown := balance * (1 + rate)
		custody := grown * custodyRate
		after := grown - custody
		gross *= 1 + rate
		if math.IsNaN(after) || math.IsInf(after, 0) || math.IsNaN(gross) || math.IsInf(gross, 0) {
			return nil, fmt.Errorf("period %d: %w: %w", p, rates.ErrDomain, ErrNonFiniteBalance)
		}

		series = append(series, &domain.PeriodRecord{
			RunID:                     run.summary.RunID,
			ScenarioID:                scenario.ID,
			InstrumentID:              inst.ID(),
			PeriodIndex:               p,
			Rate:                      rate,
			GrossBalanceBeforeCustody: grown,
			CustodyCharge:             custody,
			BalanceAfterCustody:       after,
		})

		custodyTotal += custody
		balance = after
	}

	if err := run.transition(domain.RunStateFinalized); err != nil {
		return nil, err
	}

	days := tax.HoldingPeriodDays(periods, inst.Granularity, cfg.BusinessDaysPerYear)
	taxDue, taxRate := tax.IncomeTax(cfg.TaxBrackets, gross, cfg.InitialCapital, days, inst.TaxExempt)

	s := &run.summary
	s.Periods = periods
	s.GrossFutureValue = gross
	s.CustodyAccumulated = custodyTotal
	s.TaxRate = taxRate
	s.TaxDue = taxDue
	s.NetFutureValue = gross - taxDue - custodyTotal
	s.HoldingPeriodDays = days
	s.Status = domain.RunStatusOK

	return series, nil
}

func (r *Runner) record(inst instrument.Instrument, run *runState, start time.Time) {
	r.metrics.RecordRun(inst.ID(), string(inst.Granularity), string(run.summary.Status),
		run.summary.Periods, time.Since(start).Seconds())
}

// runState tracks one run through its lifecycle.
type runState struct {
	state   domain.RunState
	summary domain.TerminalSummary
}

func newRun(scenario domain.Scenario, inst instrument.Instrument, cfg domain.Config) *runState {
	return &runState{
		state: domain.RunStateInitialized,
		summary: domain.TerminalSummary{
			RunID:        idhash.ComputeRunID(scenario.ID, inst.ID(), idhash.ConfigFingerprint(cfg)),
			ScenarioID:   scenario.ID,
			InstrumentID: inst.ID(),
			Granularity:  inst.Granularity,
		},
	}
}

func (s *runState) transition(next domain.RunState) error {
	if !s.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}
	s.state = next
	return nil
}

// fail moves the run to FAILED and clears any partial values.
func (s *runState) fail(err error) {
	s.state = domain.RunStateFailed
	s.summary = domain.TerminalSummary{
		RunID:        s.summary.RunID,
		ScenarioID:   s.summary.ScenarioID,
		InstrumentID: s.summary.InstrumentID,
		Granularity:  s.summary.Granularity,
		Status:       domain.RunStatusFailed,
		Error:        err.Error(),
	}
}

func (s *runState) result(series []*domain.PeriodRecord) *Result {
	return &Result{Summary: s.summary, Series: series, State: s.state}
}
