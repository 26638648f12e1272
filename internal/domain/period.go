package domain

// PeriodRecord is one compounding period of a simulation run.
// Corresponds to period_records table.
type PeriodRecord struct {
	RunID        string
	ScenarioID   string
	InstrumentID string

	PeriodIndex               int     // 1-based, strictly increasing
	Rate                      float64 // gross rate applied in the period
	GrossBalanceBeforeCustody float64 // balance after growth
	CustodyCharge             float64 // charged on the grown balance
	BalanceAfterCustody       float64 // carried into the next period
}
