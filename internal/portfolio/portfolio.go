// Package portfolio builds percentile-threshold weight vectors from a
// factor panel and derives portfolio, benchmark and excess return paths.
package portfolio

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"factor-eval-lab/internal/align"
	"factor-eval-lab/internal/domain"
)

// MinBreadth is the smallest number of valid factor observations for
// which a weight row is constructed. Below it the period's row is all
// zero rather than concentrating the book on a handful of names.
const MinBreadth = 10

// LongShort builds the ±0.5-leg portfolio: per period, instruments at or
// above the long percentile threshold share +0.5 equally, those at or
// below the short threshold share -0.5. Returns the result block plus
// the number of periods zeroed by the breadth guard.
func LongShort(pair align.Pair, cfg domain.EvaluationConfig) (domain.LongShortResult, int) {
	factor := pair.Factor
	nPeriods := factor.NumPeriods()

	weights := make([][]float64, nPeriods)
	zeroed := 0
	for t := 0; t < nPeriods; t++ {
		row, ok := longShortRow(factor, t, cfg.LongPercentile, cfg.ShortPercentile)
		if !ok {
			zeroed++
		}
		weights[t] = row
	}

	rets := weightedReturns(weights, pair.Returns)
	nav := cumulativeNAV(rets)

	res := domain.LongShortResult{
		AnnualizedReturn: domain.Annualize(nav[len(nav)-1]-1, nPeriods),
		Turnover:         meanTurnover(weights),
		PortfolioReturns: mustSeries(factor, rets),
		NAV:              mustSeries(factor, nav),
	}
	return res, zeroed
}

// LongOnly builds the long-only portfolio (selected instruments share
// weight 1.0 equally) and its equal-weighted benchmark and excess paths.
func LongOnly(pair align.Pair, cfg domain.EvaluationConfig) (domain.LongOnlyResult, int) {
	factor := pair.Factor
	nPeriods := factor.NumPeriods()

	weights := make([][]float64, nPeriods)
	zeroed := 0
	for t := 0; t < nPeriods; t++ {
		row, ok := longOnlyRow(factor, t, cfg.LongPercentile)
		if !ok {
			zeroed++
		}
		weights[t] = row
	}

	rets := weightedReturns(weights, pair.Returns)
	bench := benchmarkReturns(pair.Returns, cfg.BenchmarkReturn)
	excess := make([]float64, nPeriods)
	for t := range excess {
		excess[t] = rets[t] - bench[t]
	}

	excessNAV := cumulativeNAV(excess)
	res := domain.LongOnlyResult{
		AnnualizedExcessReturn: domain.Annualize(excessNAV[len(excessNAV)-1]-1, nPeriods),
		Turnover:               meanTurnover(weights),
		PortfolioReturns:       mustSeries(factor, rets),
		BenchmarkReturns:       mustSeries(factor, bench),
		ExcessReturns:          mustSeries(factor, excess),
		PortfolioNAV:           mustSeries(factor, cumulativeNAV(rets)),
		BenchmarkNAV:           mustSeries(factor, cumulativeNAV(bench)),
		ExcessNAV:              mustSeries(factor, excessNAV),
	}
	return res, zeroed
}

// longShortRow computes one period's long/short weight vector. The
// second return is false when the breadth guard zeroed the row.
func longShortRow(factor *domain.Panel, t int, longPct, shortPct float64) ([]float64, bool) {
	nInst := factor.NumInstruments()
	row := make([]float64, nInst)

	valid := validValues(factor, t)
	if len(valid) < MinBreadth {
		return row, false
	}
	sort.Float64s(valid)
	hi := percentile(valid, longPct)
	lo := percentile(valid, shortPct)

	var longCols, shortCols []int
	for j := 0; j < nInst; j++ {
		f := factor.At(t, j)
		if f >= hi {
			longCols = append(longCols, j)
		}
		if f <= lo {
			shortCols = append(shortCols, j)
		}
	}
	// Short assignment runs last so a degenerate overlap resolves the
	// same way every time.
	for _, j := range longCols {
		row[j] = 0.5 / float64(len(longCols))
	}
	for _, j := range shortCols {
		row[j] = -0.5 / float64(len(shortCols))
	}
	return row, true
}

// longOnlyRow computes one period's long-only weight vector.
func longOnlyRow(factor *domain.Panel, t int, longPct float64) ([]float64, bool) {
	nInst := factor.NumInstruments()
	row := make([]float64, nInst)

	valid := validValues(factor, t)
	if len(valid) < MinBreadth {
		return row, false
	}
	sort.Float64s(valid)
	hi := percentile(valid, longPct)

	var selected []int
	for j := 0; j < nInst; j++ {
		if factor.At(t, j) >= hi {
			selected = append(selected, j)
		}
	}
	for _, j := range selected {
		row[j] = 1.0 / float64(len(selected))
	}
	return row, true
}

// weightedReturns computes the per-period portfolio return, treating
// missing returns of weighted instruments as zero.
func weightedReturns(weights [][]float64, returns *domain.Panel) []float64 {
	out := make([]float64, len(weights))
	for t, row := range weights {
		sum := 0.0
		for j, w := range row {
			if w == 0 {
				continue
			}
			if r := returns.At(t, j); !domain.IsMissing(r) {
				sum += w * r
			}
		}
		out[t] = sum
	}
	return out
}

// benchmarkReturns computes the equal-weighted mean return over
// instruments with a valid return each period. A period with no valid
// returns falls back to the configured benchmark return.
func benchmarkReturns(returns *domain.Panel, fallback float64) []float64 {
	nPeriods := returns.NumPeriods()
	out := make([]float64, nPeriods)
	valid := make([]float64, 0, returns.NumInstruments())
	for t := 0; t < nPeriods; t++ {
		valid = valid[:0]
		for j := 0; j < returns.NumInstruments(); j++ {
			if r := returns.At(t, j); !domain.IsMissing(r) {
				valid = append(valid, r)
			}
		}
		if len(valid) == 0 {
			out[t] = fallback
			continue
		}
		out[t] = stat.Mean(valid, nil)
	}
	return out
}

// cumulativeNAV compounds a return series into net asset value,
// starting at 1.
func cumulativeNAV(rets []float64) []float64 {
	out := make([]float64, len(rets))
	nav := 1.0
	for t, r := range rets {
		nav *= 1 + r
		out[t] = nav
	}
	return out
}

// meanTurnover averages the per-period sum of absolute weight changes.
// The first period diffs against an all-zero prior row, so its
// contribution is the full weight magnitude.
func meanTurnover(weights [][]float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	total := 0.0
	prev := make([]float64, len(weights[0]))
	for _, row := range weights {
		for j, w := range row {
			d := w - prev[j]
			if d < 0 {
				d = -d
			}
			total += d
		}
		prev = row
	}
	return total / float64(len(weights))
}

// mustSeries wraps a value slice in a series indexed by the panel's
// periods.
func mustSeries(p *domain.Panel, values []float64) domain.TimeSeries {
	s, err := domain.NewTimeSeries(p.Periods(), values)
	if err != nil {
		// Lengths match by construction.
		panic(err)
	}
	return s
}

// validValues collects the non-missing factor values of period t.
func validValues(factor *domain.Panel, t int) []float64 {
	var out []float64
	for j := 0; j < factor.NumInstruments(); j++ {
		if v := factor.At(t, j); !domain.IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// percentile returns the p-th percentile (p in [0,100]) of sorted values
// using linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return domain.Missing
	}
	if n == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
