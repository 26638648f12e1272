package domain

// RunStatus marks whether a summary row holds computed values.
type RunStatus string

const (
	RunStatusOK     RunStatus = "OK"
	RunStatusFailed RunStatus = "FAILED"
)

// TerminalSummary is the final outcome of one (scenario, instrument) run.
// Corresponds to terminal_summaries table.
// Invariant: NetFutureValue = GrossFutureValue - TaxDue - CustodyAccumulated.
type TerminalSummary struct {
	RunID        string // deterministic hash of the run inputs
	ScenarioID   string
	InstrumentID string
	Granularity  Granularity
	Periods      int

	GrossFutureValue   float64 // before custody and tax
	CustodyAccumulated float64
	TaxRate            float64 // bracket rate applied, 0 when exempt
	TaxDue             float64
	NetFutureValue     float64
	HoldingPeriodDays  int

	Status RunStatus
	Error  string // set when Status is FAILED
}

// Failed reports whether the run could not be computed.
func (s *TerminalSummary) Failed() bool {
	return s.Status == RunStatusFailed
}

// Key returns the (scenario_id, instrument_id) pair identifying the row.
func (s *TerminalSummary) Key() SummaryKey {
	return SummaryKey{ScenarioID: s.ScenarioID, InstrumentID: s.InstrumentID}
}

// SummaryKey is the unique key of a result table row.
type SummaryKey struct {
	ScenarioID   string
	InstrumentID string
}

// Less orders keys by scenario, then instrument.
func (k SummaryKey) Less(other SummaryKey) bool {
	if k.ScenarioID != other.ScenarioID {
		return k.ScenarioID < other.ScenarioID
	}
	return k.InstrumentID < other.InstrumentID
}
