// Package rates converts effective interest rates between compounding periods.
// All functions are pure.
package rates

import (
	"errors"
	"fmt"
	"math"
)

// Conversion errors
var (
	ErrDomain         = errors.New("rate outside conversion domain")
	ErrInvalidPeriods = errors.New("periods per year must be positive")
)

// AnnualToPeriod converts an annual effective rate into the equivalent rate
// for one of periodsPerYear periods: (1+ia)^(1/n) - 1.
// Returns ErrDomain when 1+ia <= 0.
func AnnualToPeriod(ia float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPeriods, periodsPerYear)
	}
	base := 1 + ia
	if !(base > 0) || math.IsInf(base, 0) {
		return 0, fmt.Errorf("%w: annual rate %v", ErrDomain, ia)
	}
	if periodsPerYear == 1 {
		return ia, nil
	}
	return math.Pow(base, 1/float64(periodsPerYear)) - 1, nil
}

// PeriodToAnnual converts a per-period effective rate into the annual rate
// for periodsPerYear periods: (1+ip)^n - 1.
func PeriodToAnnual(ip float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPeriods, periodsPerYear)
	}
	base := 1 + ip
	if !(base > 0) || math.IsInf(base, 0) {
		return 0, fmt.Errorf("%w: period rate %v", ErrDomain, ip)
	}
	return math.Pow(base, float64(periodsPerYear)) - 1, nil
}

// Compose stacks two rates over the same period: (1+a)(1+b) - 1.
// Used for IPCA + real rate and for adding TR to savings yield.
func Compose(a, b float64) float64 {
	return (1+a)*(1+b) - 1
}

// RealFromNominal strips inflation from a nominal rate: (1+nominal)/(1+inflation) - 1.
func RealFromNominal(nominal, inflation float64) (float64, error) {
	if !(1+inflation > 0) {
		return 0, fmt.Errorf("%w: inflation %v", ErrDomain, inflation)
	}
	return (1+nominal)/(1+inflation) - 1, nil
}

// ApplyFee nets a per-period fee charged on the grown balance: (1+rate)(1-fee) - 1.
func ApplyFee(rate, fee float64) float64 {
	return (1+rate)*(1-fee) - 1
}

// Chain compounds a sequence of per-period rates: prod(1+r) - 1.
func Chain(periodRates ...float64) float64 {
	acc := 1.0
	for _, r := range periodRates {
		acc *= 1 + r
	}
	return acc - 1
}
