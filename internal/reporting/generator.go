package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/idhash"
	"fixed-income-lab/internal/storage"
	"fixed-income-lab/internal/tax"
)

// Generator produces reports from a result table or from stored runs.
type Generator struct {
	config       domain.Config
	descriptions map[string]string // scenario_id -> description
	now          func() time.Time  // Injectable clock for deterministic output
}

// NewGenerator creates a report generator for a batch run under cfg.
func NewGenerator(cfg domain.Config, scenarios []domain.Scenario) *Generator {
	desc := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		desc[s.ID] = s.Description
	}
	return &Generator{
		config:       cfg,
		descriptions: desc,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Build produces the report for table.
func (g *Generator) Build(table *domain.ResultTable) *Report {
	instruments := make(map[string]struct{})
	for _, row := range table.Rows {
		instruments[row.Summary.InstrumentID] = struct{}{}
	}

	r := &Report{
		GeneratedAt:     g.now(),
		ScenarioCount:   len(table.ScenarioIDs()),
		InstrumentCount: len(instruments),
		Parameters: Parameters{
			InitialCapital:      g.config.InitialCapital,
			HorizonYears:        g.config.HorizonYears,
			BusinessDaysPerYear: g.config.BusinessDaysPerYear,
			CustodyAnnualRate:   g.config.CustodyAnnualRate,
			TRMonthlyRate:       g.config.TRMonthlyRate,
			CDISelicSpread:      g.config.CDISelicSpread,
		},
	}

	for _, scenarioID := range table.ScenarioIDs() {
		r.Rankings = append(r.Rankings, g.rank(scenarioID, table.ForScenario(scenarioID)))
	}
	r.Sensitivity = sensitivity(table)

	for _, row := range table.Failed() {
		r.Failures = append(r.Failures, FailureRow{
			ScenarioID:   row.Summary.ScenarioID,
			InstrumentID: row.Summary.InstrumentID,
			RunID:        row.Summary.RunID,
			Error:        row.Summary.Error,
		})
	}

	return r
}

// rank orders the OK rows of one scenario by net value DESC, instrument_id ASC on ties.
func (g *Generator) rank(scenarioID string, rows []domain.ResultRow) ScenarioRanking {
	ranking := ScenarioRanking{
		ScenarioID:  scenarioID,
		Description: g.descriptions[scenarioID],
	}

	for _, row := range rows {
		s := row.Summary
		if s.Failed() {
			continue
		}
		bracket := "exempt"
		if s.TaxRate > 0 {
			bracket = tax.Describe(g.config.TaxBrackets, s.HoldingPeriodDays)
		}
		ranking.Rows = append(ranking.Rows, RankingRow{
			InstrumentID:       s.InstrumentID,
			GrossFutureValue:   s.GrossFutureValue,
			CustodyAccumulated: s.CustodyAccumulated,
			TaxDue:             s.TaxDue,
			NetFutureValue:     s.NetFutureValue,
			NetReturnPct:       pctChange(s.NetFutureValue, g.config.InitialCapital),
			TaxBracket:         bracket,
		})
	}

	sort.SliceStable(ranking.Rows, func(i, j int) bool {
		a, b := ranking.Rows[i], ranking.Rows[j]
		if a.NetFutureValue != b.NetFutureValue {
			return a.NetFutureValue > b.NetFutureValue
		}
		return a.InstrumentID < b.InstrumentID
	})
	for i := range ranking.Rows {
		ranking.Rows[i].Rank = i + 1
	}
	return ranking
}

// sensitivity finds, per instrument, the best and worst scenario by net value.
func sensitivity(table *domain.ResultTable) []InstrumentSensitivityRow {
	byInstrument := make(map[string]*InstrumentSensitivityRow)
	var ids []string

	for _, row := range table.Rows {
		s := row.Summary
		if s.Failed() {
			continue
		}
		cur, ok := byInstrument[s.InstrumentID]
		if !ok {
			byInstrument[s.InstrumentID] = &InstrumentSensitivityRow{
				InstrumentID:  s.InstrumentID,
				BestScenario:  s.ScenarioID,
				BestNet:       s.NetFutureValue,
				WorstScenario: s.ScenarioID,
				WorstNet:      s.NetFutureValue,
			}
			ids = append(ids, s.InstrumentID)
			continue
		}
		// rows arrive in scenario order, so ties keep the first scenario
		if s.NetFutureValue > cur.BestNet {
			cur.BestScenario, cur.BestNet = s.ScenarioID, s.NetFutureValue
		}
		if s.NetFutureValue < cur.WorstNet {
			cur.WorstScenario, cur.WorstNet = s.ScenarioID, s.NetFutureValue
		}
	}

	sort.Strings(ids)
	out := make([]InstrumentSensitivityRow, 0, len(ids))
	for _, id := range ids {
		row := byInstrument[id]
		row.SpreadPct = pctChange(row.BestNet, row.WorstNet)
		out = append(out, *row)
	}
	return out
}

// ErrDuplicateRow is returned when two stored runs under one config share a (scenario, instrument) key.
var ErrDuplicateRow = errors.New("duplicate (scenario, instrument) row")

// LoadTable rebuilds a result table from stored summaries, optionally with series.
// Only runs whose run_id was derived from cfg are kept, so stores shared by
// several batch configs report one config at a time.
// Rows come back in (scenario_id, instrument_id) order.
func LoadTable(ctx context.Context, cfg domain.Config, summaries storage.SummaryStore, records storage.PeriodRecordStore) (*domain.ResultTable, error) {
	stored, err := summaries.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	fingerprint := idhash.ConfigFingerprint(cfg)
	seen := make(map[domain.SummaryKey]struct{}, len(stored))

	table := &domain.ResultTable{Rows: make([]domain.ResultRow, 0, len(stored))}
	for _, s := range stored {
		if s.RunID != idhash.ComputeRunID(s.ScenarioID, s.InstrumentID, fingerprint) {
			continue
		}
		key := s.Key()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateRow, key.ScenarioID, key.InstrumentID)
		}
		seen[key] = struct{}{}

		row := domain.ResultRow{Summary: *s, State: domain.RunStateReported}
		if s.Failed() {
			row.State = domain.RunStateFailed
		}
		if records != nil && !s.Failed() {
			series, err := records.GetByRunID(ctx, s.RunID)
			if err != nil {
				return nil, fmt.Errorf("load series %s: %w", s.RunID, err)
			}
			row.Series = series
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func pctChange(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (value - base) / base * 100
}
