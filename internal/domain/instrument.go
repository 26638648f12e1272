package domain

// InstrumentKind identifies one of the supported fixed-income instruments.
type InstrumentKind string

// Instrument kinds. The set is closed.
const (
	InstrumentTesouroSelic     InstrumentKind = "TESOURO_SELIC"
	InstrumentTesouroPrefixado InstrumentKind = "TESOURO_PREFIXADO"
	InstrumentTesouroIPCA      InstrumentKind = "TESOURO_IPCA"
	InstrumentCDBCDI           InstrumentKind = "CDB_CDI"
	InstrumentLCI              InstrumentKind = "LCI"
	InstrumentPoupanca         InstrumentKind = "POUPANCA"
)

// InstrumentKinds lists every kind in canonical (lexicographic) order.
var InstrumentKinds = []InstrumentKind{
	InstrumentCDBCDI,
	InstrumentLCI,
	InstrumentPoupanca,
	InstrumentTesouroIPCA,
	InstrumentTesouroPrefixado,
	InstrumentTesouroSelic,
}

// Granularity is the compounding period unit of an instrument.
type Granularity string

const (
	GranularityMonthly Granularity = "MONTHLY"
	GranularityDaily   Granularity = "DAILY"
)

// MonthsPerYear is the monthly compounding frequency.
const MonthsPerYear = 12

// PeriodsPerYear returns the compounding frequency for g.
func (g Granularity) PeriodsPerYear(businessDaysPerYear int) int {
	if g == GranularityDaily {
		return businessDaysPerYear
	}
	return MonthsPerYear
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == GranularityMonthly || g == GranularityDaily
}
