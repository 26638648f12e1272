package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/instrument"
	"fixed-income-lab/internal/simulation"
	"fixed-income-lab/internal/storage"
)

var (
	// ErrRunNotFound is returned when the run id doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrScenarioNotFound is returned when a stored run names a scenario the verifier doesn't know.
	ErrScenarioNotFound = errors.New("scenario not found")
)

// ReplayVerifier implements Verifier by re-running the simulation.
type ReplayVerifier struct {
	summaryStore      storage.SummaryStore
	periodRecordStore storage.PeriodRecordStore // optional

	config    domain.Config
	scenarios map[string]domain.Scenario
	runner    *simulation.Runner
}

var _ Verifier = (*ReplayVerifier)(nil)

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	SummaryStore      storage.SummaryStore
	PeriodRecordStore storage.PeriodRecordStore // when set, stored period counts are checked too
	Config            domain.Config
	Scenarios         []domain.Scenario
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	scenarios := make(map[string]domain.Scenario, len(opts.Scenarios))
	for _, s := range opts.Scenarios {
		scenarios[s.ID] = s.Clone()
	}
	return &ReplayVerifier{
		summaryStore:      opts.SummaryStore,
		periodRecordStore: opts.PeriodRecordStore,
		config:            opts.Config,
		scenarios:         scenarios,
		// no store: replays must not write
		runner: simulation.NewRunner(simulation.RunnerOptions{}),
	}
}

// VerifyRun verifies a single stored run.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	stored, err := v.summaryStore.GetByRunID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifyAll verifies every stored run. Runs that can't be replayed are
// reported as divergent with an "Error" field.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	summaries, err := v.summaryStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(summaries),
		Results:   make([]VerificationResult, 0, len(summaries)),
	}

	for _, s := range summaries {
		result, err := v.verify(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Results = append(report.Results, VerificationResult{
				RunID:        s.RunID,
				ScenarioID:   s.ScenarioID,
				InstrumentID: s.InstrumentID,
				StoredNet:    s.NetFutureValue,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

func (v *ReplayVerifier) verify(ctx context.Context, stored *domain.TerminalSummary) (*VerificationResult, error) {
	replayed, err := v.replay(ctx, stored)
	if err != nil {
		return nil, err
	}

	divergences := CompareSummaries(stored, replayed)

	if v.periodRecordStore != nil && !stored.Failed() {
		n, err := v.periodRecordStore.CountByRunID(ctx, stored.RunID)
		if err != nil {
			return nil, fmt.Errorf("count periods %s: %w", stored.RunID, err)
		}
		if n != stored.Periods {
			divergences = append(divergences, FieldDivergence{Field: "PeriodCount", Expected: stored.Periods, Actual: n})
		}
	}

	return &VerificationResult{
		RunID:        stored.RunID,
		ScenarioID:   stored.ScenarioID,
		InstrumentID: stored.InstrumentID,
		Match:        len(divergences) == 0,
		Divergences:  divergences,
		StoredNet:    stored.NetFutureValue,
		ReplayedNet:  replayed.NetFutureValue,
	}, nil
}

// replay re-executes the run described by stored under the verifier config.
func (v *ReplayVerifier) replay(ctx context.Context, stored *domain.TerminalSummary) (*domain.TerminalSummary, error) {
	scenario, ok := v.scenarios[stored.ScenarioID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, stored.ScenarioID)
	}

	inst, err := ResolveInstrument(stored.InstrumentID, stored.Granularity)
	if err != nil {
		return nil, err
	}

	res, err := v.runner.Run(ctx, scenario, inst, v.config)
	if res == nil {
		return nil, err
	}
	// a FAILED replay is still comparable with a FAILED stored row
	return &res.Summary, nil
}

// ResolveInstrument maps a stored instrument id back to its instrument.
// Ids of non-default granularities carry a "_<GRANULARITY>" suffix.
func ResolveInstrument(instrumentID string, g domain.Granularity) (instrument.Instrument, error) {
	name := instrumentID
	if g != "" {
		name = strings.TrimSuffix(instrumentID, "_"+string(g))
	}

	kind, err := instrument.ParseKind(name)
	if err != nil {
		return instrument.Instrument{}, err
	}
	inst, err := instrument.FromKind(kind)
	if err != nil {
		return instrument.Instrument{}, err
	}
	if g == "" || g == inst.Granularity {
		return inst, nil
	}
	return inst.WithGranularity(g)
}
