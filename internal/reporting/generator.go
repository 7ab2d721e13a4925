package reporting

import (
	"context"
	"sort"
	"time"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/storage"
)

// Generator produces reports from stored evaluation results.
type Generator struct {
	resultStore storage.ResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report over all stored evaluation results.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	results, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ResultRow, len(results))
	factorSet := make(map[string]struct{})
	for i, r := range results {
		rows[i] = NewResultRow(r)
		factorSet[r.FactorName] = struct{}{}
	}
	sortResultRows(rows)

	return &Report{
		GeneratedAt: g.now(),
		FactorCount: len(factorSet),
		RunCount:    len(rows),
		Results:     rows,
	}, nil
}

// NewResultRow flattens an evaluation result into a report row.
func NewResultRow(r *domain.EvaluationResult) ResultRow {
	d := r.Diagnostics
	return ResultRow{
		FactorName:      r.FactorName,
		EvaluatedAt:     r.EvaluatedAt,
		StartPeriod:     r.StartPeriod,
		EndPeriod:       r.EndPeriod,
		PeriodCount:     r.PeriodCount,
		InstrumentCount: r.InstrumentCount,
		Inverted:        r.Inverted,
		Buckets:         r.Config.Buckets,

		ICMean:         r.IC.Mean,
		ICStd:          r.IC.Std,
		ICIR:           r.IC.ICIR,
		ICWinRate:      r.IC.WinRate,
		ICValidPeriods: r.IC.ValidPeriods,

		LongShortAnnualized:  r.LongShort.AnnualizedReturn,
		LongShortTurnover:    r.LongShort.Turnover,
		LongOnlyExcessAnnlzd: r.LongOnly.AnnualizedExcessReturn,
		LongOnlyTurnover:     r.LongOnly.Turnover,

		SuppressedFailures: d.CorrelationFailures + d.ICPeriodsBelowBreadth +
			d.GroupingPeriodsSkipped + d.LongShortPeriodsZeroed + d.LongOnlyPeriodsZeroed,
	}
}

// sortResultRows sorts rows by (factor_name, evaluated_at).
func sortResultRows(rows []ResultRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FactorName != rows[j].FactorName {
			return rows[i].FactorName < rows[j].FactorName
		}
		return rows[i].EvaluatedAt.Before(rows[j].EvaluatedAt)
	})
}
