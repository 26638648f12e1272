package instrument

import (
	"errors"
	"fmt"
	"strings"

	"fixed-income-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownInstrument   = errors.New("unknown instrument kind")
	ErrUnsupportedGranular = errors.New("granularity not supported by instrument")
)

// RateRule maps a scenario period to the gross rate earned in that period.
// period is 1-based; periodsPerYear matches the instrument granularity.
type RateRule func(s domain.Scenario, period, periodsPerYear int, cfg domain.Config) (float64, error)

// Instrument is one variant of the closed instrument set. It carries its rate
// rule and tax/custody flags as data; the run loop in package simulation is shared.
type Instrument struct {
	Kind              domain.InstrumentKind
	Name              string
	Granularity       domain.Granularity
	TaxExempt         bool
	CustodyApplicable bool

	monthlyOnly bool
	defaultG    domain.Granularity
	rule        RateRule
}

// ID returns the instrument identifier used as result table key.
// Non-default granularities are suffixed so both variants can share a table.
func (i Instrument) ID() string {
	if i.Granularity == i.defaultG {
		return string(i.Kind)
	}
	return fmt.Sprintf("%s_%s", i.Kind, i.Granularity)
}

// PeriodsPerYear returns the compounding frequency under cfg.
func (i Instrument) PeriodsPerYear(cfg domain.Config) int {
	return i.Granularity.PeriodsPerYear(cfg.BusinessDaysPerYear)
}

// Periods returns the number of periods covering the configured horizon.
func (i Instrument) Periods(cfg domain.Config) int {
	return cfg.HorizonYears * i.PeriodsPerYear(cfg)
}

// PeriodRate returns the gross rate for a 1-based period.
func (i Instrument) PeriodRate(s domain.Scenario, period int, cfg domain.Config) (float64, error) {
	if i.rule == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInstrument, i.Kind)
	}
	return i.rule(s, period, i.PeriodsPerYear(cfg), cfg)
}

// WithGranularity returns a copy compounding at g.
func (i Instrument) WithGranularity(g domain.Granularity) (Instrument, error) {
	if !g.Valid() {
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnsupportedGranular, g)
	}
	if i.monthlyOnly && g != domain.GranularityMonthly {
		return Instrument{}, fmt.Errorf("%w: %s compounds monthly", ErrUnsupportedGranular, i.Kind)
	}
	i.Granularity = g
	return i, nil
}

// FromKind builds the instrument for kind with its default granularity.
func FromKind(kind domain.InstrumentKind) (Instrument, error) {
	switch kind {
	case domain.InstrumentTesouroSelic:
		return newInstrument(kind, "Tesouro Selic", domain.GranularityDaily, false, true, selicRule), nil
	case domain.InstrumentTesouroPrefixado:
		return newInstrument(kind, "Tesouro Prefixado", domain.GranularityMonthly, false, true, prefixadoRule), nil
	case domain.InstrumentTesouroIPCA:
		return newInstrument(kind, "Tesouro IPCA+", domain.GranularityMonthly, false, true, ipcaRule), nil
	case domain.InstrumentCDBCDI:
		return newInstrument(kind, "CDB 100% CDI", domain.GranularityMonthly, false, true, cdiRule), nil
	case domain.InstrumentLCI:
		return newInstrument(kind, "LCI 90% Selic", domain.GranularityMonthly, true, true, lciRule), nil
	case domain.InstrumentPoupanca:
		i := newInstrument(kind, "Poupanca", domain.GranularityMonthly, true, false, poupancaRule)
		i.monthlyOnly = true
		return i, nil
	default:
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, kind)
	}
}

// All returns every instrument with default granularity, in canonical order.
func All() []Instrument {
	out := make([]Instrument, 0, len(domain.InstrumentKinds))
	for _, k := range domain.InstrumentKinds {
		i, err := FromKind(k)
		if err != nil {
			panic(err) // InstrumentKinds and FromKind are out of sync
		}
		out = append(out, i)
	}
	return out
}

// ParseKind accepts a kind name case-insensitively ("lci", "Tesouro_Selic").
func ParseKind(s string) (domain.InstrumentKind, error) {
	k := domain.InstrumentKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range domain.InstrumentKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
}

func newInstrument(kind domain.InstrumentKind, name string, g domain.Granularity, exempt, custody bool, rule RateRule) Instrument {
	return Instrument{
		Kind:              kind,
		Name:              name,
		Granularity:       g,
		TaxExempt:         exempt,
		CustodyApplicable: custody,
		defaultG:          g,
		rule:              rule,
	}
}
