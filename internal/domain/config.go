package domain

import (
	"fmt"
	"math"
)

// TaxBracket is one row of the regressive income tax table.
// A bracket applies to holding periods up to and including MaxDays.
// MaxDays == 0 marks the open-ended last bracket.
type TaxBracket struct {
	MaxDays int
	Rate    float64
}

// Config holds the simulation parameters shared read-only by every run.
// It is passed by value; the bracket slice must not be modified after Validate.
type Config struct {
	InitialCapital      float64
	HorizonYears        int
	BusinessDaysPerYear int
	CustodyAnnualRate   float64 // 0.002 = 0.2% a.a.
	TRMonthlyRate       float64 // reference rate added to savings accounts
	CDISelicSpread      float64 // CDI = Selic + spread
	TaxBrackets         []TaxBracket
}

// Defaults
const (
	DefaultInitialCapital      = 100_000.0
	DefaultHorizonYears        = 3
	DefaultBusinessDaysPerYear = 252
	DefaultCustodyAnnualRate   = 0.002
	DefaultTRMonthlyRate       = 0.0017
	DefaultCDISelicSpread      = -0.001
)

// RegressiveTaxBrackets is the income tax table for fixed-income redemptions.
var RegressiveTaxBrackets = []TaxBracket{
	{MaxDays: 180, Rate: 0.225},
	{MaxDays: 360, Rate: 0.20},
	{MaxDays: 720, Rate: 0.175},
	{MaxDays: 0, Rate: 0.15},
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	brackets := make([]TaxBracket, len(RegressiveTaxBrackets))
	copy(brackets, RegressiveTaxBrackets)

	return Config{
		InitialCapital:      DefaultInitialCapital,
		HorizonYears:        DefaultHorizonYears,
		BusinessDaysPerYear: DefaultBusinessDaysPerYear,
		CustodyAnnualRate:   DefaultCustodyAnnualRate,
		TRMonthlyRate:       DefaultTRMonthlyRate,
		CDISelicSpread:      DefaultCDISelicSpread,
		TaxBrackets:         brackets,
	}
}

// Validate reports an ErrConfiguration for values no run could use.
func (c Config) Validate() error {
	if !(c.InitialCapital > 0) || math.IsInf(c.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrConfiguration, c.InitialCapital)
	}
	if c.HorizonYears <= 0 {
		return fmt.Errorf("%w: horizon must be positive, got %d years", ErrConfiguration, c.HorizonYears)
	}
	if c.BusinessDaysPerYear <= 0 {
		return fmt.Errorf("%w: business days per year must be positive, got %d", ErrConfiguration, c.BusinessDaysPerYear)
	}
	if c.CustodyAnnualRate < 0 {
		return fmt.Errorf("%w: custody rate can't be negative", ErrConfiguration)
	}
	return validateBrackets(c.TaxBrackets)
}

func validateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: empty tax bracket table", ErrConfiguration)
	}
	prev := 0
	for i, b := range brackets {
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("%w: tax bracket %d rate %v out of [0, 1]", ErrConfiguration, i, b.Rate)
		}
		last := i == len(brackets)-1
		if b.MaxDays == 0 {
			if !last {
				return fmt.Errorf("%w: only the last tax bracket can be open-ended", ErrConfiguration)
			}
			continue
		}
		if b.MaxDays <= prev {
			return fmt.Errorf("%w: tax brackets must have increasing day limits", ErrConfiguration)
		}
		prev = b.MaxDays
	}
	if brackets[len(brackets)-1].MaxDays != 0 {
		return fmt.Errorf("%w: last tax bracket must be open-ended", ErrConfiguration)
	}
	return nil
}
