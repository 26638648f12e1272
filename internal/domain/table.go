package domain

// ResultRow is one (scenario, instrument) entry of a result table.
type ResultRow struct {
	Summary TerminalSummary
	State   RunState
	Series  []*PeriodRecord // empty unless series were requested
}

// ResultTable holds one row per (scenario, instrument) pair,
// ordered by (scenario_id, instrument_id).
type ResultTable struct {
	Rows []ResultRow
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// Summaries returns the summaries in table order.
func (t *ResultTable) Summaries() []TerminalSummary {
	out := make([]TerminalSummary, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Summary
	}
	return out
}

// ScenarioIDs returns the distinct scenario ids in table order.
func (t *ResultTable) ScenarioIDs() []string {
	var ids []string
	for _, r := range t.Rows {
		if n := len(ids); n == 0 || ids[n-1] != r.Summary.ScenarioID {
			ids = append(ids, r.Summary.ScenarioID)
		}
	}
	return ids
}

// ForScenario returns the rows of one scenario.
func (t *ResultTable) ForScenario(scenarioID string) []ResultRow {
	var out []ResultRow
	for _, r := range t.Rows {
		if r.Summary.ScenarioID == scenarioID {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the rows whose run could not be computed.
func (t *ResultTable) Failed() []ResultRow {
	var out []ResultRow
	for _, r := range t.Rows {
		if r.Summary.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// Get looks a row up by key.
func (t *ResultTable) Get(key SummaryKey) (ResultRow, bool) {
	for _, r := range t.Rows {
		if r.Summary.Key() == key {
			return r, true
		}
	}
	return ResultRow{}, false
}
