package domain

import "fmt"

// YearRates holds the annual benchmark rates for one calendar year of a scenario.
type YearRates struct {
	Year  int     // calendar year
	Selic float64 // annual effective Selic rate (0.15 = 15% a.a.)
	IPCA  float64 // annual IPCA inflation
}

// Scenario is a macroeconomic trajectory of Selic and IPCA, one entry per year.
type Scenario struct {
	ID          string
	Description string
	Years       []YearRates // ordered, contiguous
}

// Scenario ID constants
const (
	ScenarioManutencao   = "manutencao"
	ScenarioAperto       = "aperto"
	ScenarioAfrouxamento = "afrouxamento"
)

// Predefined scenarios covering 2025-2027.
var (
	ScenarioConfigManutencao = Scenario{
		ID:          ScenarioManutencao,
		Description: "Selic held at the current level for the whole horizon",
		Years: []YearRates{
			{Year: 2025, Selic: 0.15, IPCA: 0.050},
			{Year: 2026, Selic: 0.15, IPCA: 0.045},
			{Year: 2027, Selic: 0.15, IPCA: 0.040},
		},
	}

	ScenarioConfigAperto = Scenario{
		ID:          ScenarioAperto,
		Description: "Monetary tightening against persistent inflation",
		Years: []YearRates{
			{Year: 2025, Selic: 0.15, IPCA: 0.055},
			{Year: 2026, Selic: 0.165, IPCA: 0.060},
			{Year: 2027, Selic: 0.17, IPCA: 0.050},
		},
	}

	ScenarioConfigAfrouxamento = Scenario{
		ID:          ScenarioAfrouxamento,
		Description: "Easing cycle as inflation converges to target",
		Years: []YearRates{
			{Year: 2025, Selic: 0.15, IPCA: 0.045},
			{Year: 2026, Selic: 0.12, IPCA: 0.035},
			{Year: 2027, Selic: 0.08, IPCA: 0.030},
		},
	}
)

// DefaultScenarios returns copies of the predefined scenarios.
func DefaultScenarios() []Scenario {
	out := make([]Scenario, 0, 3)
	for _, s := range []Scenario{ScenarioConfigManutencao, ScenarioConfigAperto, ScenarioConfigAfrouxamento} {
		out = append(out, s.Clone())
	}
	return out
}

// Clone returns a deep copy so callers can't mutate shared year slices.
func (s Scenario) Clone() Scenario {
	years := make([]YearRates, len(s.Years))
	copy(years, s.Years)
	s.Years = years
	return s
}

// Validate checks that the scenario covers horizonYears contiguous years.
func (s Scenario) Validate(horizonYears int) error {
	if s.ID == "" {
		return fmt.Errorf("%w: scenario id is required", ErrConfiguration)
	}
	if len(s.Years) == 0 {
		return fmt.Errorf("%w: scenario %s has no years", ErrConfiguration, s.ID)
	}
	for i := 1; i < len(s.Years); i++ {
		if s.Years[i].Year != s.Years[i-1].Year+1 {
			return fmt.Errorf("%w: scenario %s is not contiguous at year %d",
				ErrConfiguration, s.ID, s.Years[i].Year)
		}
	}
	if len(s.Years) < horizonYears {
		return fmt.Errorf("%w: scenario %s covers %d years, horizon is %d",
			ErrConfiguration, s.ID, len(s.Years), horizonYears)
	}
	return nil
}

// RatesForPeriod returns the year entry in force for a 1-based period index.
func (s Scenario) RatesForPeriod(period, periodsPerYear int) (YearRates, error) {
	if period < 1 || periodsPerYear < 1 {
		return YearRates{}, fmt.Errorf("invalid period %d (periods per year %d)", period, periodsPerYear)
	}
	idx := (period - 1) / periodsPerYear
	if idx >= len(s.Years) {
		return YearRates{}, fmt.Errorf("scenario %s has no rates for period %d", s.ID, period)
	}
	return s.Years[idx], nil
}
