// Package main runs a projection batch: every scenario against every
// instrument, then writes CSV and markdown reports.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"fixed-income-lab/internal/config"
	"fixed-income-lab/internal/logger"
	"fixed-income-lab/internal/observability"
	"fixed-income-lab/internal/orchestrator"
	"fixed-income-lab/internal/reporting"
	"fixed-income-lab/internal/scenario"
	"fixed-income-lab/internal/storage/backend"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	outputDir := flag.String("output-dir", "", "Output directory for reports (overrides run.output_dir)")
	workers := flag.Int("workers", -1, "Concurrent runs, 0 = GOMAXPROCS (overrides run.workers)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides run.log_level)")
	metricsAddr := flag.String("metrics-addr", "", "Serve /metrics and /health on this address while running")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations before persisting")
	noSeries := flag.Bool("no-series", false, "Skip per-period series CSVs")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file, using process environment")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("%s: can't load config", err)
	}
	if *outputDir != "" {
		cfg.Run.OutputDir = *outputDir
	}
	if *workers >= 0 {
		cfg.Run.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Run.LogLevel = *logLevel
	}
	if *noSeries {
		cfg.Run.KeepSeries = false
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	level, err := logger.ParseLevel(cfg.Run.LogLevel)
	if err != nil {
		log.Fatalf("%s: bad log level", err)
	}
	zapLogger, loggerSync, err := logger.NewZapLogger(level)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *migrate, zapLogger); err != nil {
		zapLogger.Errorf("%s: batch failed", err)
		loggerSync()
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg config.Config, migrate bool, log logger.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, cfg.Metrics.Namespace)

	if cfg.Metrics.Addr != "" {
		srv := startHTTPServer(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	domainCfg := cfg.DomainConfig()

	registry := scenario.NewRegistry(domainCfg.HorizonYears)
	for _, s := range cfg.DomainScenarios() {
		if err := registry.Register(s); err != nil {
			return err
		}
	}

	instruments, err := cfg.BuildInstruments()
	if err != nil {
		return err
	}

	stores, err := backend.Open(ctx, backend.Options{
		PostgresDSN:   cfg.Storage.PostgresDSN,
		ClickhouseDSN: cfg.Storage.ClickhouseDSN,
		Migrate:       migrate,
		Logger:        log,
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}
	defer stores.Close()
	log.Infow("stores ready", "summaries", stores.SummariesDriver, "periods", stores.PeriodsDriver)

	orch := orchestrator.New(orchestrator.Options{
		Scenarios:         registry.List(),
		Instruments:       instruments,
		Config:            domainCfg,
		SummaryStore:      stores.Summaries,
		PeriodRecordStore: stores.Periods,
		Workers:           cfg.Run.Workers,
		KeepSeries:        cfg.Run.KeepSeries,
		Logger:            log,
		Metrics:           metrics,
	})

	table, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	report := reporting.NewGenerator(domainCfg, registry.List()).Build(table)
	written, err := reporting.WriteAll(cfg.Run.OutputDir, table, report)
	metrics.RecordReports(len(written))
	if err != nil {
		return err
	}

	log.Infow("batch complete",
		"rows", table.Len(),
		"failed", len(table.Failed()),
		"files", len(written),
		"output_dir", cfg.Run.OutputDir,
	)
	return nil
}

func startHTTPServer(addr string, reg *prometheus.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(reg))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnf("%s: metrics server stopped", err)
		}
	}()
	return srv
}
