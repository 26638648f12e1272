// Package main regenerates the CSV and markdown reports from stored
// summaries (Postgres) and period series (ClickHouse).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fixed-income-lab/internal/config"
	"fixed-income-lab/internal/domain"
	"fixed-income-lab/internal/logger"
	"fixed-income-lab/internal/reporting"
	"fixed-income-lab/internal/storage/backend"
	"fixed-income-lab/internal/verification"
)

var (
	errNoPostgres = errors.New("--postgres-dsn (or POSTGRES_DSN) is required")
	errDivergent  = errors.New("stored runs diverge from replay")
)

func main() {
	configPath := flag.String("config", "", "YAML config the batch ran with (built-in defaults when empty)")
	outputDir := flag.String("output-dir", "", "Output directory for reports (overrides run.output_dir)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config and POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config and CLICKHOUSE_DSN)")
	withSeries := flag.Bool("series", true, "Load period series and write series CSVs (needs ClickHouse)")
	scenarioID := flag.String("scenario", "", "Only report this scenario")
	verify := flag.Bool("verify", false, "Re-simulate stored runs and fail on divergences")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file, using process environment")
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			zapLogger.Errorf("%s: can't load config", err)
			loggerSync()
			os.Exit(1)
		}
	}
	if *outputDir != "" {
		cfg.Run.OutputDir = *outputDir
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *verify {
		if err := verifyStored(ctx, cfg, zapLogger); err != nil {
			zapLogger.Errorf("%s: verification failed", err)
			loggerSync()
			os.Exit(1)
		}
	}

	if err := run(ctx, cfg, *withSeries, *scenarioID, zapLogger); err != nil {
		zapLogger.Errorf("%s: report failed", err)
		loggerSync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, withSeries bool, scenarioID string, log logger.Logger) error {
	if cfg.Storage.PostgresDSN == "" {
		return errNoPostgres
	}
	if withSeries && cfg.Storage.ClickhouseDSN == "" {
		log.Warnf("no clickhouse dsn, series CSVs are skipped")
		withSeries = false
	}

	stores, err := backend.Open(ctx, backend.Options{
		PostgresDSN:   cfg.Storage.PostgresDSN,
		ClickhouseDSN: cfg.Storage.ClickhouseDSN,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	defer stores.Close()

	periods := stores.Periods
	if !withSeries {
		periods = nil
	}

	table, err := reporting.LoadTable(ctx, cfg.DomainConfig(), stores.Summaries, periods)
	if err != nil {
		return err
	}
	if scenarioID != "" {
		table = &domain.ResultTable{Rows: table.ForScenario(scenarioID)}
	}
	if table.Len() == 0 {
		log.Warnf("no stored summaries to report")
		return nil
	}

	report := reporting.NewGenerator(cfg.DomainConfig(), cfg.DomainScenarios()).Build(table)
	written, err := reporting.WriteAll(cfg.Run.OutputDir, table, report)
	if err != nil {
		return err
	}

	log.Infow("reports regenerated", "rows", table.Len(), "files", len(written), "output_dir", cfg.Run.OutputDir)
	return nil
}

// verifyStored replays every stored run under cfg and logs each divergence.
func verifyStored(ctx context.Context, cfg config.Config, log logger.Logger) error {
	if cfg.Storage.PostgresDSN == "" {
		return errNoPostgres
	}

	stores, err := backend.Open(ctx, backend.Options{
		PostgresDSN:   cfg.Storage.PostgresDSN,
		ClickhouseDSN: cfg.Storage.ClickhouseDSN,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	defer stores.Close()

	opts := verification.ReplayVerifierOptions{
		SummaryStore: stores.Summaries,
		Config:       cfg.DomainConfig(),
		Scenarios:    cfg.DomainScenarios(),
	}
	if stores.PeriodsDriver != "memory" {
		opts.PeriodRecordStore = stores.Periods
	}

	report, err := verification.NewReplayVerifier(opts).VerifyAll(ctx)
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		for _, d := range r.Divergences {
			log.Warnw("divergence",
				"run_id", r.RunID,
				"scenario", r.ScenarioID,
				"instrument", r.InstrumentID,
				"field", d.Field,
				"stored", d.Expected,
				"replayed", d.Actual,
			)
		}
	}
	log.Infow("verification complete", "runs", report.TotalRuns, "matched", report.MatchedRuns, "divergent", report.DivergentRuns)

	if report.DivergentRuns > 0 {
		return fmt.Errorf("%w: %d of %d", errDivergent, report.DivergentRuns, report.TotalRuns)
	}
	return nil
}
