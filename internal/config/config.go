// Package config loads the simulation batch configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/instrument"
	"fixed-income-lab/internal/logger"
)

// Environment variables read when the file leaves a DSN empty.
const (
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickhouseDSN = "CLICKHOUSE_DSN"
)

type TaxBracketConfig struct {
	MaxDays int     `yaml:"max_days"` // 0 = open-ended
	Rate    float64 `yaml:"rate"`
}

type SimulationConfig struct {
	InitialCapital      *float64           `yaml:"initial_capital"` // nil = default; explicit 0 is rejected
	HorizonYears        *int               `yaml:"horizon_years"`
	BusinessDaysPerYear *int               `yaml:"business_days_per_year"`
	CustodyAnnualRate   *float64           `yaml:"custody_annual_rate"` // nil = default, 0 is a valid rate
	TRMonthlyRate       *float64           `yaml:"tr_monthly_rate"`
	CDISelicSpread      *float64           `yaml:"cdi_selic_spread"`
	TaxBrackets         []TaxBracketConfig `yaml:"tax_brackets"`
}

func (c *SimulationConfig) Setup() {
	if c.InitialCapital == nil {
		c.InitialCapital = ptr(domain.DefaultInitialCapital)
	}
	if c.HorizonYears == nil {
		c.HorizonYears = ptr(domain.DefaultHorizonYears)
	}
	if c.BusinessDaysPerYear == nil {
		c.BusinessDaysPerYear = ptr(domain.DefaultBusinessDaysPerYear)
	}
	if c.CustodyAnnualRate == nil {
		c.CustodyAnnualRate = ptr(domain.DefaultCustodyAnnualRate)
	}
	if c.TRMonthlyRate == nil {
		c.TRMonthlyRate = ptr(domain.DefaultTRMonthlyRate)
	}
	if c.CDISelicSpread == nil {
		c.CDISelicSpread = ptr(domain.DefaultCDISelicSpread)
	}
	if len(c.TaxBrackets) == 0 {
		for _, b := range domain.RegressiveTaxBrackets {
			c.TaxBrackets = append(c.TaxBrackets, TaxBracketConfig{MaxDays: b.MaxDays, Rate: b.Rate})
		}
	}
}

type YearConfig struct {
	Year  int     `yaml:"year"`
	Selic float64 `yaml:"selic"`
	IPCA  float64 `yaml:"ipca"`
}

type ScenarioConfig struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description"`
	Years       []YearConfig `yaml:"years"`
}

type InstrumentsConfig struct {
	Kinds       []string          `yaml:"kinds"`       // empty = all
	Granularity map[string]string `yaml:"granularity"` // kind -> MONTHLY|DAILY override
}

type RunConfig struct {
	Workers    int    `yaml:"workers"`
	KeepSeries bool   `yaml:"keep_series"`
	OutputDir  string `yaml:"output_dir"`
	LogLevel   string `yaml:"log_level"`
}

const (
	_outputDirDefault = "reports"
	_logLevelDefault  = "info"
)

func (c *RunConfig) Setup() {
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.OutputDir == "" {
		c.OutputDir = _outputDirDefault
	}
	if c.LogLevel == "" {
		c.LogLevel = _logLevelDefault
	}
}

type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

func (c *StorageConfig) Setup() {
	if c.PostgresDSN == "" {
		c.PostgresDSN = os.Getenv(EnvPostgresDSN)
	}
	if c.ClickhouseDSN == "" {
		c.ClickhouseDSN = os.Getenv(EnvClickhouseDSN)
	}
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"` // empty disables the /metrics endpoint
	Namespace string `yaml:"namespace"`
}

// Config is the whole batch configuration file.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Scenarios   []ScenarioConfig  `yaml:"scenarios"`
	Instruments InstrumentsConfig `yaml:"instruments"`
	Run         RunConfig         `yaml:"run"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ValidateAndSetup fills defaults and checks the result can drive a batch.
func (c *Config) ValidateAndSetup() error {
	c.Simulation.Setup()
	c.Run.Setup()
	c.Storage.Setup()

	if err := c.DomainConfig().Validate(); err != nil {
		return err
	}

	for _, s := range c.DomainScenarios() {
		if err := s.Validate(c.DomainConfig().HorizonYears); err != nil {
			return err
		}
	}

	if _, err := c.BuildInstruments(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if _, err := logger.ParseLevel(c.Run.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	return nil
}

// DomainConfig converts the simulation section into the engine config.
// Call after ValidateAndSetup so optional rates are set.
func (c *Config) DomainConfig() domain.Config {
	s := c.Simulation
	brackets := make([]domain.TaxBracket, len(s.TaxBrackets))
	for i, b := range s.TaxBrackets {
		brackets[i] = domain.TaxBracket{MaxDays: b.MaxDays, Rate: b.Rate}
	}
	return domain.Config{
		InitialCapital:      deref(s.InitialCapital),
		HorizonYears:        deref(s.HorizonYears),
		BusinessDaysPerYear: deref(s.BusinessDaysPerYear),
		CustodyAnnualRate:   deref(s.CustodyAnnualRate),
		TRMonthlyRate:       deref(s.TRMonthlyRate),
		CDISelicSpread:      deref(s.CDISelicSpread),
		TaxBrackets:         brackets,
	}
}

// DomainScenarios returns the configured scenarios, or the built-in set when none are listed.
func (c *Config) DomainScenarios() []domain.Scenario {
	if len(c.Scenarios) == 0 {
		return domain.DefaultScenarios()
	}
	out := make([]domain.Scenario, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		s := domain.Scenario{ID: sc.ID, Description: sc.Description}
		for _, y := range sc.Years {
			s.Years = append(s.Years, domain.YearRates{Year: y.Year, Selic: y.Selic, IPCA: y.IPCA})
		}
		out = append(out, s)
	}
	return out
}

// BuildInstruments resolves the instrument list with granularity overrides.
func (c *Config) BuildInstruments() ([]instrument.Instrument, error) {
	kinds := domain.InstrumentKinds
	if len(c.Instruments.Kinds) > 0 {
		kinds = make([]domain.InstrumentKind, 0, len(c.Instruments.Kinds))
		for _, name := range c.Instruments.Kinds {
			k, err := instrument.ParseKind(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}

	overrides := make(map[domain.InstrumentKind]domain.Granularity, len(c.Instruments.Granularity))
	for name, g := range c.Instruments.Granularity {
		k, err := instrument.ParseKind(name)
		if err != nil {
			return nil, err
		}
		overrides[k] = domain.Granularity(strings.ToUpper(strings.TrimSpace(g)))
	}

	out := make([]instrument.Instrument, 0, len(kinds))
	for _, k := range kinds {
		inst, err := instrument.FromKind(k)
		if err != nil {
			return nil, err
		}
		if g, ok := overrides[k]; ok {
			inst, err = inst.WithGranularity(g)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	if err := cfg.ValidateAndSetup(); err != nil {
		panic(err) // built-in defaults are always valid
	}
	return cfg
}

// Load reads filename, applies defaults and validates.
func Load(filename string) (Config, error) {
	input, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("%w: can't read file", err)
	}
	return Parse(input)
}

// Parse decodes YAML input. Unknown keys are rejected.
func Parse(input []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(input))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
