package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/observability"
	"factor-eval-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL. Only the
// tabular summary of a result is persisted; the per-period series stay
// with the caller and are exported by the reporting layer.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if a result for
// (factor_name, evaluated_at) exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.EvaluationResult) error {
	if r == nil || r.FactorName == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO evaluation_results (
			factor_name, evaluated_at,
			start_period, end_period, period_count, instrument_count, inverted,
			buckets, long_percentile, short_percentile, benchmark_return,
			ic_mean, ic_std, icir, ic_win_rate, ic_valid_periods,
			bucket_returns,
			ls_annualized_return, ls_turnover,
			lo_annualized_excess_return, lo_turnover,
			correlation_failures, ic_periods_below_breadth, grouping_periods_skipped,
			long_short_periods_zeroed, long_only_periods_zeroed
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15, $16,
			$17,
			$18, $19,
			$20, $21,
			$22, $23, $24,
			$25, $26
		)
	`

	started := time.Now()
	_, err := s.pool.Exec(ctx, query,
		r.FactorName, r.EvaluatedAt,
		r.StartPeriod, r.EndPeriod, r.PeriodCount, r.InstrumentCount, r.Inverted,
		r.Config.Buckets, r.Config.LongPercentile, r.Config.ShortPercentile, r.Config.BenchmarkReturn,
		r.IC.Mean, r.IC.Std, r.IC.ICIR, r.IC.WinRate, r.IC.ValidPeriods,
		r.BucketReturns,
		r.LongShort.AnnualizedReturn, r.LongShort.Turnover,
		r.LongOnly.AnnualizedExcessReturn, r.LongOnly.Turnover,
		r.Diagnostics.CorrelationFailures, r.Diagnostics.ICPeriodsBelowBreadth, r.Diagnostics.GroupingPeriodsSkipped,
		r.Diagnostics.LongShortPeriodsZeroed, r.Diagnostics.LongOnlyPeriodsZeroed,
	)
	observability.RecordDBQuery("postgres", "insert_result", time.Since(started).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert evaluation result: %w", err)
	}
	return nil
}

const resultColumns = `
	factor_name, evaluated_at,
	start_period, end_period, period_count, instrument_count, inverted,
	buckets, long_percentile, short_percentile, benchmark_return,
	ic_mean, ic_std, icir, ic_win_rate, ic_valid_periods,
	bucket_returns,
	ls_annualized_return, ls_turnover,
	lo_annualized_excess_return, lo_turnover,
	correlation_failures, ic_periods_below_breadth, grouping_periods_skipped,
	long_short_periods_zeroed, long_only_periods_zeroed
`

// GetByFactor retrieves all results for a factor, ordered by
// evaluated_at ASC.
func (s *ResultStore) GetByFactor(ctx context.Context, factorName string) ([]*domain.EvaluationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM evaluation_results
		WHERE factor_name = $1
		ORDER BY evaluated_at ASC
	`

	started := time.Now()
	rows, err := s.pool.Query(ctx, query, factorName)
	observability.RecordDBQuery("postgres", "get_results_by_factor", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("get evaluation results by factor: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by evaluated_at ASC.
func (s *ResultStore) GetAll(ctx context.Context) ([]*domain.EvaluationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM evaluation_results
		ORDER BY evaluated_at ASC
	`

	started := time.Now()
	rows, err := s.pool.Query(ctx, query)
	observability.RecordDBQuery("postgres", "get_all_results", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("get all evaluation results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// scanResults scans multiple rows into EvaluationResult summaries. The
// series fields of the returned results are empty; they are not stored.
func scanResults(rows pgx.Rows) ([]*domain.EvaluationResult, error) {
	var results []*domain.EvaluationResult

	for rows.Next() {
		var r domain.EvaluationResult

		err := rows.Scan(
			&r.FactorName, &r.EvaluatedAt,
			&r.StartPeriod, &r.EndPeriod, &r.PeriodCount, &r.InstrumentCount, &r.Inverted,
			&r.Config.Buckets, &r.Config.LongPercentile, &r.Config.ShortPercentile, &r.Config.BenchmarkReturn,
			&r.IC.Mean, &r.IC.Std, &r.IC.ICIR, &r.IC.WinRate, &r.IC.ValidPeriods,
			&r.BucketReturns,
			&r.LongShort.AnnualizedReturn, &r.LongShort.Turnover,
			&r.LongOnly.AnnualizedExcessReturn, &r.LongOnly.Turnover,
			&r.Diagnostics.CorrelationFailures, &r.Diagnostics.ICPeriodsBelowBreadth, &r.Diagnostics.GroupingPeriodsSkipped,
			&r.Diagnostics.LongShortPeriodsZeroed, &r.Diagnostics.LongOnlyPeriodsZeroed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation result row: %w", err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation result rows: %w", err)
	}

	return results, nil
}
