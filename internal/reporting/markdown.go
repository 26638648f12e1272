package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Fixed-Income Projection Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Scenarios: %d | Instruments: %d\n\n", r.ScenarioCount, r.InstrumentCount))

	// Parameters
	p := r.Parameters
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", formatMoney(p.InitialCapital)))
	sb.WriteString(fmt.Sprintf("| Horizon | %d years |\n", p.HorizonYears))
	sb.WriteString(fmt.Sprintf("| Business Days / Year | %d |\n", p.BusinessDaysPerYear))
	sb.WriteString(fmt.Sprintf("| Custody | %s a.a. |\n", formatPct(p.CustodyAnnualRate*100, 2)))
	sb.WriteString(fmt.Sprintf("| TR | %s a.m. |\n", formatPct(p.TRMonthlyRate*100, 2)))
	sb.WriteString(fmt.Sprintf("| CDI Spread over Selic | %s |\n", formatPct(p.CDISelicSpread*100, 2)))
	sb.WriteString("\n")

	// Rankings
	for _, ranking := range r.Rankings {
		title := ranking.ScenarioID
		if ranking.Description != "" {
			title = fmt.Sprintf("%s (%s)", ranking.ScenarioID, ranking.Description)
		}
		sb.WriteString(fmt.Sprintf("## Ranking: %s\n\n", title))

		if len(ranking.Rows) == 0 {
			sb.WriteString("No successful runs in this scenario.\n\n")
			continue
		}

		sb.WriteString("| # | Instrument | Gross | Custody | Tax | Net | Return | Tax Bracket |\n")
		sb.WriteString("|---|------------|-------|---------|-----|-----|--------|-------------|\n")
		for _, row := range ranking.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				row.Rank, row.InstrumentID,
				formatMoney(row.GrossFutureValue), formatMoney(row.CustodyAccumulated),
				formatMoney(row.TaxDue), formatMoney(row.NetFutureValue),
				formatPct(row.NetReturnPct, 2), row.TaxBracket))
		}
		sb.WriteString("\n")
	}

	// Sensitivity
	sb.WriteString("## Scenario Sensitivity\n\n")
	if len(r.Sensitivity) > 0 {
		sb.WriteString("| Instrument | Best Scenario | Best Net | Worst Scenario | Worst Net | Spread |\n")
		sb.WriteString("|------------|---------------|----------|----------------|-----------|--------|\n")
		for _, s := range r.Sensitivity {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				s.InstrumentID, s.BestScenario, formatMoney(s.BestNet),
				s.WorstScenario, formatMoney(s.WorstNet), formatPct(s.SpreadPct, 2)))
		}
	} else {
		sb.WriteString("No scenario sensitivity data available.\n")
	}
	sb.WriteString("\n")

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Failed Runs\n\n")
		sb.WriteString("| Scenario | Instrument | Run | Error |\n")
		sb.WriteString("|----------|------------|-----|-------|\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				f.ScenarioID, f.InstrumentID, f.RunID, strings.ReplaceAll(f.Error, "|", `\|`)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatMoney renders v rounded to cents with thousands separators, e.g. "R$ 151,925.16".
func formatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	return fmt.Sprintf("%sR$ %s.%s", sign, grouped.String(), frac)
}

func formatPct(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places) + "%"
}
