package reporting

import "time"

// Report is the projection report of one batch.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	ScenarioCount   int
	InstrumentCount int

	// Parameters the batch ran with
	Parameters Parameters

	// Per-scenario rankings, scenarios in id order, rows by net value DESC
	Rankings []ScenarioRanking

	// Instrument spread across scenarios, sorted by instrument_id
	Sensitivity []InstrumentSensitivityRow

	// Runs that could not be computed
	Failures []FailureRow
}

// Parameters echoes the configuration a report was produced with.
type Parameters struct {
	InitialCapital      float64
	HorizonYears        int
	BusinessDaysPerYear int
	CustodyAnnualRate   float64
	TRMonthlyRate       float64
	CDISelicSpread      float64
}

// ScenarioRanking ranks the instruments of one scenario.
type ScenarioRanking struct {
	ScenarioID  string
	Description string
	Rows        []RankingRow
}

// RankingRow is one instrument in a scenario ranking.
type RankingRow struct {
	Rank               int
	InstrumentID       string
	GrossFutureValue   float64
	CustodyAccumulated float64
	TaxDue             float64
	NetFutureValue     float64
	NetReturnPct       float64 // (net - initial) / initial * 100
	TaxBracket         string  // "exempt" for tax-exempt instruments
}

// InstrumentSensitivityRow compares one instrument across scenarios.
type InstrumentSensitivityRow struct {
	InstrumentID  string
	BestScenario  string
	BestNet       float64
	WorstScenario string
	WorstNet      float64
	SpreadPct     float64 // (best - worst) / worst * 100, 0 if worst == 0
}

// FailureRow lists a failed run.
type FailureRow struct {
	ScenarioID   string
	InstrumentID string
	RunID        string
	Error        string
}
