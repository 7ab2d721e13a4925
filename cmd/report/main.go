package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"factor-eval-lab/internal/reporting"
	"factor-eval-lab/internal/storage/migrations"
	pgstore "factor-eval-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	factor := flag.String("factor", "", "Restrict the report to one factor name")
	format := flag.String("format", "markdown", "Output format: markdown, csv")
	outFile := flag.String("out", "", "Output file (default stdout)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger := newLogger(*debug)

	if *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required")
	}
	if *format != "markdown" && *format != "csv" {
		logger.Fatal().Str("format", *format).Msg("unknown format, use markdown or csv")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres migrations")
	}

	store := pgstore.NewResultStore(pool)

	var report *reporting.Report
	if *factor != "" {
		results, err := store.GetByFactor(ctx, *factor)
		if err != nil {
			logger.Fatal().Err(err).Msg("load results")
		}
		rows := make([]reporting.ResultRow, len(results))
		for i, r := range results {
			rows[i] = reporting.NewResultRow(r)
		}
		report = &reporting.Report{
			GeneratedAt: time.Now().UTC(),
			FactorCount: 1,
			RunCount:    len(rows),
			Results:     rows,
		}
	} else {
		report, err = reporting.NewGenerator(store).Generate(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("generate report")
		}
	}

	var output string
	switch *format {
	case "csv":
		output = reporting.RenderCSV(report.Results)
	default:
		output = reporting.RenderMarkdown(report)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0o644); err != nil {
			logger.Fatal().Err(err).Msg("write report file")
		}
		logger.Info().Str("file", *outFile).Msg("report written")
		return
	}
	fmt.Print(output)
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
