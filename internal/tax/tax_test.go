package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/rates"
)

func TestRateForDays_Boundaries(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 0.225},
		{1, 0.225},
		{180, 0.225},
		{181, 0.20},
		{360, 0.20},
		{361, 0.175},
		{720, 0.175},
		{721, 0.15},
		{1080, 0.15},
		{100000, 0.15},
	}

	for _, tt := range tests {
		got := RateForDays(domain.RegressiveTaxBrackets, tt.days)
		if got != tt.want {
			t.Errorf("RateForDays(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestIncomeTax(t *testing.T) {
	brackets := domain.RegressiveTaxBrackets

	due, rate := IncomeTax(brackets, 150000, 100000, 1080, false)
	assert.InDelta(t, 7500, due, 1e-9)
	assert.Equal(t, 0.15, rate)

	due, rate = IncomeTax(brackets, 150000, 100000, 1080, true)
	assert.Equal(t, 0.0, due)
	assert.Equal(t, 0.0, rate)

	// losses are never taxed
	due, _ = IncomeTax(brackets, 90000, 100000, 100, false)
	assert.Equal(t, 0.0, due)

	due, rate = IncomeTax(brackets, 101000, 100000, 90, false)
	assert.InDelta(t, 225, due, 1e-9)
	assert.Equal(t, 0.225, rate)
}

func TestHoldingPeriodDays(t *testing.T) {
	assert.Equal(t, 1080, HoldingPeriodDays(36, domain.GranularityMonthly, 252))
	assert.Equal(t, 30, HoldingPeriodDays(1, domain.GranularityMonthly, 252))
	assert.Equal(t, 1095, HoldingPeriodDays(756, domain.GranularityDaily, 252))
	assert.Equal(t, 365, HoldingPeriodDays(252, domain.GranularityDaily, 252))
	assert.Equal(t, 0, HoldingPeriodDays(0, domain.GranularityDaily, 252))
}

func TestCustodyRate(t *testing.T) {
	monthly, err := CustodyRate(0.002, 12)
	require.NoError(t, err)

	annual, err := rates.PeriodToAnnual(monthly, 12)
	require.NoError(t, err)
	assert.InDelta(t, 0.002, annual, 1e-12)

	zero, err := CustodyRate(0, 252)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero)

	_, err = CustodyRate(-1, 12)
	assert.ErrorIs(t, err, rates.ErrDomain)
}

func TestDescribe(t *testing.T) {
	b := domain.RegressiveTaxBrackets
	assert.Equal(t, "22.5% (up to 180 days)", Describe(b, 10))
	assert.Equal(t, "20.0% (181-360 days)", Describe(b, 181))
	assert.Equal(t, "17.5% (361-720 days)", Describe(b, 720))
	assert.Equal(t, "15.0% (over 720 days)", Describe(b, 1080))
}
