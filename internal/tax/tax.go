// Package tax computes custody accrual and the regressive income tax due at redemption.
package tax

import (
	"fmt"
	"math"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/rates"
)

// Calendar conversions used to map compounding periods to holding days.
const (
	DaysPerMonth        = 30
	CalendarDaysPerYear = 365.25
)

// CustodyRate returns the per-period custody fee equivalent to annualRate.
func CustodyRate(annualRate float64, periodsPerYear int) (float64, error) {
	r, err := rates.AnnualToPeriod(annualRate, periodsPerYear)
	if err != nil {
		return 0, fmt.Errorf("custody rate: %w", err)
	}
	return r, nil
}

// HoldingPeriodDays converts a period count into calendar days.
// Monthly periods count 30 days; business days are scaled by 365.25/businessDaysPerYear
// and truncated.
func HoldingPeriodDays(periods int, g domain.Granularity, businessDaysPerYear int) int {
	if periods <= 0 {
		return 0
	}
	if g == domain.GranularityDaily && businessDaysPerYear > 0 {
		return int(math.Floor(float64(periods) * CalendarDaysPerYear / float64(businessDaysPerYear)))
	}
	return periods * DaysPerMonth
}

// RateForDays returns the bracket rate for a holding period.
// Brackets must be validated (ascending, open-ended last row).
func RateForDays(brackets []domain.TaxBracket, days int) float64 {
	for _, b := range brackets {
		if b.MaxDays == 0 || days <= b.MaxDays {
			return b.Rate
		}
	}
	if len(brackets) == 0 {
		return 0
	}
	return brackets[len(brackets)-1].Rate
}

// IncomeTax returns the tax due on the gain gross - initial and the rate applied.
// Exempt instruments and non-positive gains pay nothing.
func IncomeTax(brackets []domain.TaxBracket, gross, initial float64, days int, exempt bool) (due, rate float64) {
	if exempt {
		return 0, 0
	}
	rate = RateForDays(brackets, days)
	gain := math.Max(0, gross-initial)
	return rate * gain, rate
}

// Describe renders the bracket in force for days, e.g. "17.5% (361-720 days)".
func Describe(brackets []domain.TaxBracket, days int) string {
	lower := 0
	for _, b := range brackets {
		if b.MaxDays == 0 {
			return fmt.Sprintf("%.1f%% (over %d days)", b.Rate*100, lower)
		}
		if days <= b.MaxDays {
			if lower == 0 {
				return fmt.Sprintf("%.1f%% (up to %d days)", b.Rate*100, b.MaxDays)
			}
			return fmt.Sprintf("%.1f%% (%d-%d days)", b.Rate*100, lower+1, b.MaxDays)
		}
		lower = b.MaxDays
	}
	return "exempt"
}
