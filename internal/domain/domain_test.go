package domain

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"zero horizon", func(c *Config) { c.HorizonYears = 0 }},
		{"zero business days", func(c *Config) { c.BusinessDaysPerYear = 0 }},
		{"negative custody", func(c *Config) { c.CustodyAnnualRate = -0.01 }},
		{"empty brackets", func(c *Config) { c.TaxBrackets = nil }},
		{"rate above one", func(c *Config) { c.TaxBrackets[0].Rate = 1.5 }},
		{"open bracket not last", func(c *Config) { c.TaxBrackets[1].MaxDays = 0 }},
		{"last bracket closed", func(c *Config) { c.TaxBrackets[3].MaxDays = 1000 }},
		{"decreasing limits", func(c *Config) { c.TaxBrackets[1].MaxDays = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestDefaultConfig_DoesNotShareBrackets(t *testing.T) {
	c := DefaultConfig()
	c.TaxBrackets[0].Rate = 0.99
	if RegressiveTaxBrackets[0].Rate != 0.225 {
		t.Fatal("DefaultConfig must copy the bracket table")
	}
}

func TestScenarioValidate(t *testing.T) {
	for _, s := range DefaultScenarios() {
		if err := s.Validate(3); err != nil {
			t.Errorf("%s: %v", s.ID, err)
		}
	}

	gap := Scenario{ID: "gap", Years: []YearRates{{Year: 2025}, {Year: 2027}, {Year: 2028}}}
	if err := gap.Validate(3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected gap to fail, got %v", err)
	}

	short := ScenarioConfigManutencao.Clone()
	if err := short.Validate(4); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected short scenario to fail, got %v", err)
	}

	if err := (Scenario{Years: short.Years}).Validate(3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected missing id to fail, got %v", err)
	}
}

func TestScenarioClone(t *testing.T) {
	c := ScenarioConfigAperto.Clone()
	c.Years[0].Selic = 0.99
	if ScenarioConfigAperto.Years[0].Selic == 0.99 {
		t.Fatal("Clone must not share the year slice")
	}
}

func TestRatesForPeriod(t *testing.T) {
	s := ScenarioConfigAfrouxamento

	tests := []struct {
		period, ppy int
		year        int
	}{
		{1, 12, 2025},
		{12, 12, 2025},
		{13, 12, 2026},
		{36, 12, 2027},
		{252, 252, 2025},
		{253, 252, 2026},
		{756, 252, 2027},
	}

	for _, tt := range tests {
		y, err := s.RatesForPeriod(tt.period, tt.ppy)
		if err != nil {
			t.Fatalf("period %d/%d: %v", tt.period, tt.ppy, err)
		}
		if y.Year != tt.year {
			t.Errorf("period %d/%d: got year %d, want %d", tt.period, tt.ppy, y.Year, tt.year)
		}
	}

	for _, bad := range [][2]int{{0, 12}, {37, 12}, {1, 0}} {
		if _, err := s.RatesForPeriod(bad[0], bad[1]); err == nil {
			t.Errorf("period %d/%d: expected error", bad[0], bad[1])
		}
	}
}

func TestRunStateTransitions(t *testing.T) {
	allowed := [][2]RunState{
		{RunStateInitialized, RunStateAccumulating},
		{RunStateAccumulating, RunStateFinalized},
		{RunStateFinalized, RunStateReported},
		{RunStateInitialized, RunStateFailed},
		{RunStateAccumulating, RunStateFailed},
	}
	for _, tr := range allowed {
		if !tr[0].CanTransition(tr[1]) {
			t.Errorf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}

	rejected := [][2]RunState{
		{RunStateInitialized, RunStateFinalized},
		{RunStateFinalized, RunStateAccumulating},
		{RunStateReported, RunStateFailed},
		{RunStateFailed, RunStateAccumulating},
	}
	for _, tr := range rejected {
		if tr[0].CanTransition(tr[1]) {
			t.Errorf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}

	if !RunStateReported.Terminal() || !RunStateFailed.Terminal() || RunStateFinalized.Terminal() {
		t.Error("unexpected Terminal result")
	}
}

func TestGranularity(t *testing.T) {
	if GranularityDaily.PeriodsPerYear(252) != 252 || GranularityMonthly.PeriodsPerYear(252) != 12 {
		t.Error("unexpected periods per year")
	}
	if Granularity("WEEKLY").Valid() {
		t.Error("WEEKLY must be invalid")
	}
}

func TestSummaryKeyLess(t *testing.T) {
	a := SummaryKey{ScenarioID: "aperto", InstrumentID: "TESOURO_SELIC"}
	b := SummaryKey{ScenarioID: "manutencao", InstrumentID: "CDB_CDI"}
	c := SummaryKey{ScenarioID: "manutencao", InstrumentID: "LCI"}

	if !a.Less(b) || !b.Less(c) || c.Less(b) || b.Less(b) {
		t.Error("unexpected key ordering")
	}
}

func TestResultTable(t *testing.T) {
	row := func(scenario, inst string, status RunStatus) ResultRow {
		return ResultRow{Summary: TerminalSummary{ScenarioID: scenario, InstrumentID: inst, Status: status}}
	}
	table := &ResultTable{Rows: []ResultRow{
		row("aperto", "CDB_CDI", RunStatusOK),
		row("aperto", "LCI", RunStatusFailed),
		row("manutencao", "CDB_CDI", RunStatusOK),
	}}

	if table.Len() != 3 {
		t.Fatalf("Len = %d", table.Len())
	}
	if ids := table.ScenarioIDs(); len(ids) != 2 || ids[0] != "aperto" || ids[1] != "manutencao" {
		t.Errorf("ScenarioIDs = %v", ids)
	}
	if got := table.ForScenario("aperto"); len(got) != 2 {
		t.Errorf("ForScenario = %d rows", len(got))
	}
	if failed := table.Failed(); len(failed) != 1 || failed[0].Summary.InstrumentID != "LCI" {
		t.Errorf("Failed = %v", failed)
	}
	if _, ok := table.Get(SummaryKey{ScenarioID: "manutencao", InstrumentID: "CDB_CDI"}); !ok {
		t.Error("Get: row not found")
	}
	if _, ok := table.Get(SummaryKey{ScenarioID: "manutencao", InstrumentID: "LCI"}); ok {
		t.Error("Get: unexpected row")
	}
	if s := table.Summaries(); len(s) != 3 || s[2].ScenarioID != "manutencao" {
		t.Errorf("Summaries = %v", s)
	}
}
