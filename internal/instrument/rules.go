package instrument

import (
	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/rates"
)

// Contract constants
const (
	PrefixadoAnnualRate    = 0.14
	IPCARealAnnualRate     = 0.07
	LCISelicFactor         = 0.90
	PoupancaSelicThreshold = 0.085
	PoupancaFlatMonthly    = 0.005
	PoupancaSelicFactor    = 0.70
)

// selicRule: Tesouro Selic pays the Selic rate of the year.
func selicRule(s domain.Scenario, period, ppy int, _ domain.Config) (float64, error) {
	y, err := s.RatesForPeriod(period, ppy)
	if err != nil {
		return 0, err
	}
	return rates.AnnualToPeriod(y.Selic, ppy)
}

// prefixadoRule: constant 14% a.a., independent of the scenario.
func prefixadoRule(_ domain.Scenario, _, ppy int, _ domain.Config) (float64, error) {
	return rates.AnnualToPeriod(PrefixadoAnnualRate, ppy)
}

// ipcaRule: IPCA of the year composed with a 7% a.a. real rate.
func ipcaRule(s domain.Scenario, period, ppy int, _ domain.Config) (float64, error) {
	y, err := s.RatesForPeriod(period, ppy)
	if err != nil {
		return 0, err
	}
	inflation, err := rates.AnnualToPeriod(y.IPCA, ppy)
	if err != nil {
		return 0, err
	}
	realRate, err := rates.AnnualToPeriod(IPCARealAnnualRate, ppy)
	if err != nil {
		return 0, err
	}
	return rates.Compose(inflation, realRate), nil
}

// cdiRule: CDI tracks Selic shifted by the configured spread.
func cdiRule(s domain.Scenario, period, ppy int, cfg domain.Config) (float64, error) {
	y, err := s.RatesForPeriod(period, ppy)
	if err != nil {
		return 0, err
	}
	return rates.AnnualToPeriod(y.Selic+cfg.CDISelicSpread, ppy)
}

// lciRule: 90% of Selic.
func lciRule(s domain.Scenario, period, ppy int, _ domain.Config) (float64, error) {
	y, err := s.RatesForPeriod(period, ppy)
	if err != nil {
		return 0, err
	}
	return rates.AnnualToPeriod(LCISelicFactor*y.Selic, ppy)
}

// poupancaRule: 0.5% a.m. while Selic is above 8.5% a.a., 70% of Selic otherwise,
// plus TR in both branches.
func poupancaRule(s domain.Scenario, period, ppy int, cfg domain.Config) (float64, error) {
	y, err := s.RatesForPeriod(period, ppy)
	if err != nil {
		return 0, err
	}
	base := PoupancaFlatMonthly
	if y.Selic <= PoupancaSelicThreshold {
		base, err = rates.AnnualToPeriod(PoupancaSelicFactor*y.Selic, domain.MonthsPerYear)
		if err != nil {
			return 0, err
		}
	}
	return rates.Compose(base, cfg.TRMonthlyRate), nil
}
