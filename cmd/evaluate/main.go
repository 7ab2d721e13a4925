package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"factor-eval-lab/internal/config"
	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/evaluation"
	"factor-eval-lab/internal/observability"
	"factor-eval-lab/internal/paneldata"
	"factor-eval-lab/internal/reporting"
	"factor-eval-lab/internal/storage"
	chstore "factor-eval-lab/internal/storage/clickhouse"
	"factor-eval-lab/internal/storage/migrations"
	pgstore "factor-eval-lab/internal/storage/postgres"
)

func main() {
	// Input selection: either two CSV files or two ClickHouse datasets
	factorFile := flag.String("factor-file", "", "Factor panel CSV file (.csv, .csv.gz, .zip)")
	returnsFile := flag.String("returns-file", "", "Returns panel CSV file (.csv, .csv.gz, .zip)")
	factorDataset := flag.String("factor-dataset", "", "Factor dataset name in ClickHouse")
	returnsDataset := flag.String("returns-dataset", "", "Returns dataset name in ClickHouse")
	dateColumn := flag.String("date-column", paneldata.DefaultDateColumn, "Date column name in CSV files")

	factorName := flag.String("factor-name", "", "Factor name for the result record (required)")
	configPath := flag.String("config", "", "YAML config file")

	// Evaluation parameters (override config file)
	buckets := flag.Int("buckets", 0, "Number of quantile buckets")
	longPercentile := flag.Float64("long-percentile", 0, "Long-leg factor percentile threshold")
	shortPercentile := flag.Float64("short-percentile", 0, "Short-leg factor percentile threshold")
	benchmarkReturn := flag.Float64("benchmark-return", 0, "Fallback benchmark return per period")
	invert := flag.Bool("invert", false, "Negate the factor signal before evaluation")

	// Smoothing (override config file)
	smooth := flag.String("smooth", "", "Comma-separated smoothing methods: rolling_mean, rolling_std, zscore, ema")
	smoothWindow := flag.Int("smooth-window", 0, "Rolling window for smoothing methods")
	smoothAlpha := flag.Float64("smooth-alpha", 0, "EMA decay factor in (0, 1]")

	// Storage
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (panel source)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (result sink)")
	persist := flag.Bool("persist", false, "Persist the result summary to PostgreSQL")

	// Output
	outDir := flag.String("out-dir", "", "Directory for exported per-period series files")
	outputJSON := flag.Bool("json", false, "Output result summary as JSON")
	metricsAddr := flag.String("metrics-addr", "", "Listen address for the /metrics endpoint")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger := newLogger(*debug)

	if *factorName == "" {
		logger.Fatal().Msg("--factor-name is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	applyFlagOverrides(&cfg, flagOverrides{
		buckets:         *buckets,
		longPercentile:  *longPercentile,
		shortPercentile: *shortPercentile,
		benchmarkReturn: *benchmarkReturn,
		invert:          *invert,
		smooth:          *smooth,
		smoothWindow:    *smoothWindow,
		smoothAlpha:     *smoothAlpha,
		clickhouseDSN:   *clickhouseDSN,
		postgresDSN:     *postgresDSN,
		outDir:          *outDir,
		metricsAddr:     *metricsAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	factor, returns, err := loadPanels(ctx, cfg, *factorFile, *returnsFile, *factorDataset, *returnsDataset, *dateColumn, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load panels")
	}

	evaluator, err := evaluation.New(cfg.Evaluation)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid evaluation config")
	}
	evaluator.WithLogger(logger)

	result, err := evaluator.Evaluate(*factorName, factor, returns)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	if *persist {
		if cfg.Storage.PostgresDSN == "" {
			logger.Fatal().Msg("--postgres-dsn is required with --persist")
		}
		if err := persistResult(ctx, cfg.Storage.PostgresDSN, result); err != nil {
			logger.Fatal().Err(err).Msg("persist result")
		}
		observability.RecordResultPersisted()
		logger.Info().Str("factor", result.FactorName).Msg("result persisted")
	}

	if cfg.Output.Dir != "" {
		if err := reporting.WriteSeriesFiles(cfg.Output.Dir, result); err != nil {
			logger.Fatal().Err(err).Msg("export series")
		}
		logger.Info().Str("dir", cfg.Output.Dir).Msg("series exported")
	}

	if *outputJSON {
		summary := struct {
			reporting.ResultRow
			BucketReturns []float64 `json:"bucket_returns"`
		}{reporting.NewResultRow(result), result.BucketReturns}
		output, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderResultMarkdown(result))
	}
}

type flagOverrides struct {
	buckets         int
	longPercentile  float64
	shortPercentile float64
	benchmarkReturn float64
	invert          bool
	smooth          string
	smoothWindow    int
	smoothAlpha     float64
	clickhouseDSN   string
	postgresDSN     string
	outDir          string
	metricsAddr     string
}

// applyFlagOverrides layers explicitly-set flags over the file config.
func applyFlagOverrides(cfg *config.Config, o flagOverrides) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["buckets"] {
		cfg.Evaluation.Buckets = o.buckets
	}
	if set["long-percentile"] {
		cfg.Evaluation.LongPercentile = o.longPercentile
	}
	if set["short-percentile"] {
		cfg.Evaluation.ShortPercentile = o.shortPercentile
	}
	if set["benchmark-return"] {
		cfg.Evaluation.BenchmarkReturn = o.benchmarkReturn
	}
	if set["invert"] {
		cfg.Evaluation.InvertFactor = o.invert
	}
	if set["smooth"] {
		cfg.Evaluation.Smoothing.Enabled = o.smooth != ""
		cfg.Evaluation.Smoothing.Methods = nil
		for _, name := range strings.Split(o.smooth, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			m := domain.SmoothingMethod{Name: name}
			if set["smooth-window"] {
				m.Window = o.smoothWindow
			}
			if name == domain.SmoothEMA && set["smooth-alpha"] {
				m.Alpha = o.smoothAlpha
			}
			cfg.Evaluation.Smoothing.Methods = append(cfg.Evaluation.Smoothing.Methods, m)
		}
	}
	if set["smooth-window"] {
		cfg.Evaluation.Smoothing.Window = o.smoothWindow
	}
	if set["clickhouse-dsn"] {
		cfg.Storage.ClickhouseDSN = o.clickhouseDSN
	}
	if set["postgres-dsn"] {
		cfg.Storage.PostgresDSN = o.postgresDSN
	}
	if set["out-dir"] {
		cfg.Output.Dir = o.outDir
	}
	if set["metrics-addr"] {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

// loadPanels reads both panels from files or from ClickHouse datasets.
func loadPanels(
	ctx context.Context,
	cfg config.Config,
	factorFile, returnsFile, factorDataset, returnsDataset, dateColumn string,
	logger zerolog.Logger,
) (*domain.Panel, *domain.Panel, error) {
	switch {
	case factorFile != "" && returnsFile != "":
		opts := paneldata.Options{DateColumn: dateColumn}
		factor, err := paneldata.LoadFile(factorFile, opts)
		if err != nil {
			return nil, nil, err
		}
		returns, err := paneldata.LoadFile(returnsFile, opts)
		if err != nil {
			return nil, nil, err
		}
		observability.RecordPanelLoaded("file")
		observability.RecordPanelLoaded("file")
		return factor, returns, nil

	case factorDataset != "" && returnsDataset != "":
		if cfg.Storage.ClickhouseDSN == "" {
			return nil, nil, fmt.Errorf("--clickhouse-dsn is required with dataset inputs")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		defer conn.Close()

		store := chstore.NewPanelStore(conn)
		factor, err := store.GetPanel(ctx, factorDataset)
		if err != nil {
			return nil, nil, fmt.Errorf("load factor dataset %s: %w", factorDataset, err)
		}
		returns, err := store.GetPanel(ctx, returnsDataset)
		if err != nil {
			return nil, nil, fmt.Errorf("load returns dataset %s: %w", returnsDataset, err)
		}
		observability.RecordPanelLoaded("clickhouse")
		observability.RecordPanelLoaded("clickhouse")
		logger.Debug().Str("factor", factorDataset).Str("returns", returnsDataset).Msg("panels loaded from clickhouse")
		return factor, returns, nil

	default:
		return nil, nil, fmt.Errorf("either --factor-file/--returns-file or --factor-dataset/--returns-dataset is required")
	}
}

// persistResult writes the result summary to PostgreSQL, applying
// migrations first.
func persistResult(ctx context.Context, dsn string, result *domain.EvaluationResult) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	var store storage.ResultStore = pgstore.NewResultStore(pool)
	return store.Insert(ctx, result)
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint stopped")
	}
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
