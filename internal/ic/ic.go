// Package ic computes the per-period rank information coefficient of a
// lagged factor against realized returns, and its summary statistics.
package ic

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"factor-eval-lab/internal/align"
	"factor-eval-lab/internal/domain"
)

// minJointObservations is the smallest number of jointly valid
// instruments for which a correlation is defined.
const minJointObservations = 2

// Result bundles the IC series with its statistics and the counts of
// per-period cases that were absorbed as missing values.
type Result struct {
	Series domain.TimeSeries
	Stats  domain.ICStats

	// CorrelationFailures counts periods where the correlation was
	// numerically degenerate (e.g. zero variance) and recorded missing.
	CorrelationFailures int
	// BelowBreadth counts periods with fewer than 2 jointly valid
	// instruments, also recorded missing.
	BelowBreadth int
}

// Compute evaluates the Spearman rank correlation between the factor at
// period t-1 and the return at period t, for every period of the aligned
// pair. The first period has no prior factor and is always missing.
// Per-period failures never abort the computation; the affected entry is
// missing and counted.
func Compute(pair align.Pair) Result {
	factor, returns := pair.Factor, pair.Returns
	nPeriods := factor.NumPeriods()
	nInst := factor.NumInstruments()

	values := make([]float64, nPeriods)
	values[0] = domain.Missing

	res := Result{}
	fs := make([]float64, 0, nInst)
	rs := make([]float64, 0, nInst)
	for t := 1; t < nPeriods; t++ {
		fs, rs = fs[:0], rs[:0]
		for j := 0; j < nInst; j++ {
			f := factor.At(t-1, j)
			r := returns.At(t, j)
			if domain.IsMissing(f) || domain.IsMissing(r) {
				continue
			}
			fs = append(fs, f)
			rs = append(rs, r)
		}
		if len(fs) < minJointObservations {
			values[t] = domain.Missing
			res.BelowBreadth++
			continue
		}
		rho := spearman(fs, rs)
		if domain.IsMissing(rho) {
			res.CorrelationFailures++
		}
		values[t] = rho
	}

	series, err := domain.NewTimeSeries(factor.Periods(), values)
	if err != nil {
		// Lengths match by construction.
		panic(err)
	}
	res.Series = series
	res.Stats = summarize(values)
	return res
}

// summarize computes mean, sample std, ICIR and win rate over the
// non-missing entries of the IC series.
func summarize(values []float64) domain.ICStats {
	valid := make([]float64, 0, len(values))
	positive := 0
	for _, v := range values {
		if domain.IsMissing(v) {
			continue
		}
		valid = append(valid, v)
		if v > 0 {
			positive++
		}
	}

	stats := domain.ICStats{
		Mean:    domain.Missing,
		Std:     domain.Missing,
		ICIR:    domain.Missing,
		WinRate: domain.Missing,
	}
	stats.ValidPeriods = len(valid)
	if len(valid) == 0 {
		return stats
	}

	stats.Mean = stat.Mean(valid, nil)
	stats.WinRate = float64(positive) / float64(len(valid))
	if len(valid) < 2 {
		return stats
	}
	stats.Std = stat.StdDev(valid, nil)
	if stats.Std != 0 {
		stats.ICIR = stats.Mean / stats.Std
	}
	return stats
}

// spearman computes the Spearman rank correlation as the Pearson
// correlation of midranks. Degenerate inputs (zero variance in either
// side) yield missing rather than an error.
func spearman(xs, ys []float64) float64 {
	return stat.Correlation(midranks(xs), midranks(ys), nil)
}

// midranks assigns each value its rank position, averaging over ties.
func midranks(xs []float64) []float64 {
	n := len(xs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[order[j+1]] == xs[order[i]] {
			j++
		}
		// Ranks are 1-based; tied values share the average rank.
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = mid
		}
		i = j + 1
	}
	return ranks
}
