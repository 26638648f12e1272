package reporting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fixed-income-lab/internal/domain"
)

// SummaryCSVHeader is the column order of summary CSVs.
const SummaryCSVHeader = "scenario_id,instrument_id,gross_future_value,custody_accumulated,tax_due," +
	"net_future_value,holding_period_days,status,error\n"

// SeriesCSVHeader is the column order of period series CSVs.
const SeriesCSVHeader = "scenario_id,instrument_id,period_index,rate,gross_balance_before_custody," +
	"custody_charge,balance_after_custody\n"

// RenderSummaryCSV renders terminal summaries as CSV string.
// Money columns are rounded half away from zero to cents.
func RenderSummaryCSV(summaries []domain.TerminalSummary) string {
	var sb strings.Builder

	sb.WriteString(SummaryCSVHeader)

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%d,%s,%s\n",
			csvField(s.ScenarioID),
			csvField(s.InstrumentID),
			money(s.GrossFutureValue),
			money(s.CustodyAccumulated),
			money(s.TaxDue),
			money(s.NetFutureValue),
			s.HoldingPeriodDays,
			s.Status,
			csvField(s.Error),
		))
	}

	return sb.String()
}

// RenderSeriesCSV renders a period series as CSV string.
func RenderSeriesCSV(records []*domain.PeriodRecord) string {
	var sb strings.Builder

	sb.WriteString(SeriesCSVHeader)

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s,%s,%s\n",
			csvField(r.ScenarioID),
			csvField(r.InstrumentID),
			r.PeriodIndex,
			decimal.NewFromFloat(r.Rate).StringFixed(10),
			money(r.GrossBalanceBeforeCustody),
			decimal.NewFromFloat(r.CustodyCharge).StringFixed(6),
			money(r.BalanceAfterCustody),
		))
	}

	return sb.String()
}

// money formats v with two decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// csvField quotes a field when it would break the row.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
