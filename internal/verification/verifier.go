// Package verification re-simulates stored runs and checks that the stored
// summaries still match what the engine computes.
package verification

import (
	"context"
	"math"

	"fixed-income-lab/internal/domain"
)

// FloatTolerance is the absolute tolerance for monetary comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID        string
	ScenarioID   string
	InstrumentID string
	Match        bool
	Divergences  []FieldDivergence
	StoredNet    float64
	ReplayedNet  float64
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// Verifier re-checks stored runs.
type Verifier interface {
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// CompareSummaries compares two summaries and returns divergences.
// Monetary fields use FloatTolerance, everything else must match exactly.
func CompareSummaries(stored, replayed *domain.TerminalSummary) []FieldDivergence {
	var divergences []FieldDivergence

	exact := func(field string, a, b interface{}) {
		if a != b {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	approx := func(field string, a, b float64) {
		if !floatEquals(a, b) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}

	// A different run id means the config fingerprint changed
	exact("RunID", stored.RunID, replayed.RunID)
	exact("ScenarioID", stored.ScenarioID, replayed.ScenarioID)
	exact("InstrumentID", stored.InstrumentID, replayed.InstrumentID)
	exact("Granularity", stored.Granularity, replayed.Granularity)
	exact("Periods", stored.Periods, replayed.Periods)
	exact("Status", stored.Status, replayed.Status)

	approx("GrossFutureValue", stored.GrossFutureValue, replayed.GrossFutureValue)
	approx("CustodyAccumulated", stored.CustodyAccumulated, replayed.CustodyAccumulated)
	exact("TaxRate", stored.TaxRate, replayed.TaxRate)
	approx("TaxDue", stored.TaxDue, replayed.TaxDue)
	approx("NetFutureValue", stored.NetFutureValue, replayed.NetFutureValue)
	exact("HoldingPeriodDays", stored.HoldingPeriodDays, replayed.HoldingPeriodDays)

	return divergences
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
