// Package evaluation sequences the factor evaluation pipeline:
// smooth -> align -> rank correlation -> quantile grouping -> portfolio
// construction, assembling one immutable result record per call.
package evaluation

import (
	"time"

	"github.com/rs/zerolog"

	"factor-eval-lab/internal/align"
	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/ic"
	"factor-eval-lab/internal/observability"
	"factor-eval-lab/internal/portfolio"
	"factor-eval-lab/internal/quantile"
	"factor-eval-lab/internal/smoothing"
)

// Evaluator runs complete factor evaluations under one validated
// configuration. It holds no per-call state; one Evaluator may serve
// concurrent calls as long as each call's input panels are not mutated
// externally mid-call.
type Evaluator struct {
	cfg domain.EvaluationConfig
	log zerolog.Logger
	now func() time.Time
}

// New creates an Evaluator. The configuration is validated here, before
// any per-period loop can start; an invalid value is rejected as
// *domain.ConfigurationError.
func New(cfg domain.EvaluationConfig) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg: cfg,
		log: zerolog.Nop(),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithLogger sets the structured logger used for run summaries.
func (e *Evaluator) WithLogger(log zerolog.Logger) *Evaluator {
	e.log = log
	return e
}

// WithClock sets a custom clock for deterministic result timestamps.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate runs the full pipeline over caller-owned panels, which are
// never mutated: smoothing and inversion produce new panels, alignment
// works on projections. Only *domain.AlignmentError escapes from the
// per-period engines; their local failures are absorbed as missing
// values and surfaced in the result's Diagnostics block.
func (e *Evaluator) Evaluate(factorName string, factor, returns *domain.Panel) (*domain.EvaluationResult, error) {
	started := e.now()

	smoothed, err := smoothing.Apply(factor, e.cfg.Smoothing)
	if err != nil {
		observability.RecordEvaluation("error", e.now().Sub(started).Seconds())
		return nil, err
	}
	if e.cfg.InvertFactor {
		smoothed = invert(smoothed)
	}

	pair, err := align.Align(smoothed, returns)
	if err != nil {
		observability.RecordEvaluation("error", e.now().Sub(started).Seconds())
		return nil, err
	}
	e.log.Debug().
		Int("periods", pair.Factor.NumPeriods()).
		Int("instruments", pair.Factor.NumInstruments()).
		Msg("panels aligned")

	icRes := ic.Compute(pair)
	groupRes := quantile.Compute(pair, e.cfg.Buckets)
	longShort, lsZeroed := portfolio.LongShort(pair, e.cfg)
	longOnly, loZeroed := portfolio.LongOnly(pair, e.cfg)

	periods := pair.Factor.Periods()
	result := &domain.EvaluationResult{
		FactorName:         factorName,
		EvaluatedAt:        e.now(),
		StartPeriod:        periods[0],
		EndPeriod:          periods[len(periods)-1],
		PeriodCount:        pair.Factor.NumPeriods(),
		InstrumentCount:    pair.Factor.NumInstruments(),
		Inverted:           e.cfg.InvertFactor,
		Config:             e.cfg,
		IC:                 icRes.Stats,
		ICSeries:           icRes.Series,
		CumulativeICSeries: icRes.Series.Cumulative(),
		BucketReturns:      groupRes.AnnualizedReturns,
		LongShort:          longShort,
		LongOnly:           longOnly,
		Diagnostics: domain.Diagnostics{
			CorrelationFailures:    icRes.CorrelationFailures,
			ICPeriodsBelowBreadth:  icRes.BelowBreadth,
			GroupingPeriodsSkipped: groupRes.SkippedPeriods,
			LongShortPeriodsZeroed: lsZeroed,
			LongOnlyPeriodsZeroed:  loZeroed,
		},
	}

	observability.RecordEvaluation("ok", e.now().Sub(started).Seconds())
	observability.RecordSuppressed("rank_correlation", icRes.CorrelationFailures, icRes.BelowBreadth)
	observability.RecordSuppressed("quantile_grouping", 0, groupRes.SkippedPeriods)
	observability.RecordSuppressed("portfolio", 0, lsZeroed+loZeroed)

	e.log.Info().
		Str("factor", factorName).
		Float64("icir", result.IC.ICIR).
		Float64("ic_mean", result.IC.Mean).
		Float64("long_short_annualized", result.LongShort.AnnualizedReturn).
		Float64("excess_annualized", result.LongOnly.AnnualizedExcessReturn).
		Float64("turnover", result.LongShort.Turnover).
		Msg("factor evaluation complete")

	return result, nil
}

// invert returns a panel with every valid cell negated.
func invert(p *domain.Panel) *domain.Panel {
	values := make([][]float64, p.NumPeriods())
	for i := range values {
		row := p.Row(i)
		for j, v := range row {
			if !domain.IsMissing(v) {
				row[j] = -v
			}
		}
		values[i] = row
	}
	out, err := p.WithValues(values)
	if err != nil {
		panic(err)
	}
	return out
}
