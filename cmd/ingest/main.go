package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"factor-eval-lab/internal/observability"
	"factor-eval-lab/internal/paneldata"
	"factor-eval-lab/internal/storage"
	chstore "factor-eval-lab/internal/storage/clickhouse"
	"factor-eval-lab/internal/storage/migrations"
)

func main() {
	file := flag.String("file", "", "Panel file to ingest (.csv, .csv.gz, .zip) (required)")
	dataset := flag.String("dataset", "", "Dataset name to store the panel under (required)")
	dateColumn := flag.String("date-column", paneldata.DefaultDateColumn, "Date column name")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger := newLogger(*debug)

	if *file == "" {
		logger.Fatal().Msg("--file is required")
	}
	if *dataset == "" {
		logger.Fatal().Msg("--dataset is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal().Msg("--clickhouse-dsn is required")
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

	panel, err := paneldata.LoadFile(*file, paneldata.Options{DateColumn: *dateColumn})
	if err != nil {
		logger.Fatal().Err(err).Msg("load panel file")
	}
	observability.RecordPanelLoaded("file")
	logger.Info().
		Str("file", *file).
		Int("periods", panel.NumPeriods()).
		Int("instruments", panel.NumInstruments()).
		Msg("panel loaded")

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("clickhouse migrations")
	}
	defer conn.Close()

	store := chstore.NewPanelStore(conn)
	if err := store.InsertPanel(ctx, *dataset, panel); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatal().Str("dataset", *dataset).Msg("dataset already exists, pick a new name")
		}
		logger.Fatal().Err(err).Msg("insert panel")
	}

	logger.Info().Str("dataset", *dataset).Msg("panel ingested")
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
