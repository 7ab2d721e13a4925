// Package quantile partitions instruments into ordered factor-rank
// buckets per period and attributes annualized returns to each bucket.
package quantile

import (
	"sort"

	"factor-eval-lab/internal/align"
	"factor-eval-lab/internal/domain"
)

// Result holds one annualized return per bucket, ordered from bucket 1
// (highest factor) to bucket k (lowest factor).
type Result struct {
	AnnualizedReturns []float64

	// SkippedPeriods counts periods with fewer valid instruments than
	// buckets; every bucket is missing for those periods.
	SkippedPeriods int
}

// Compute splits each period's valid instruments into buckets ordered by
// factor value descending and compounds the per-period mean bucket
// returns over the full span. Instruments with a missing factor are
// dropped for the period; missing returns of kept instruments count as
// zero. Ties in factor value keep the aligned column order.
func Compute(pair align.Pair, buckets int) Result {
	factor, returns := pair.Factor, pair.Returns
	nPeriods := factor.NumPeriods()

	res := Result{AnnualizedReturns: make([]float64, buckets)}
	cumulative := make([]float64, buckets)
	for b := range cumulative {
		cumulative[b] = 1
	}

	for t := 0; t < nPeriods; t++ {
		members := validByFactorDesc(factor, t)
		if len(members) < buckets {
			res.SkippedPeriods++
			continue
		}
		perGroup := len(members) / buckets
		for b := 0; b < buckets; b++ {
			start := b * perGroup
			end := start + perGroup
			if b == buckets-1 {
				end = len(members) // last bucket absorbs the remainder
			}
			cumulative[b] *= 1 + meanReturn(returns, t, members[start:end])
		}
	}

	for b := 0; b < buckets; b++ {
		res.AnnualizedReturns[b] = domain.Annualize(cumulative[b]-1, nPeriods)
	}
	return res
}

// validByFactorDesc returns the column indices of instruments with a
// valid factor at period t, sorted by factor value descending. The sort
// is stable so equal factors keep their column order.
func validByFactorDesc(factor *domain.Panel, t int) []int {
	var members []int
	for j := 0; j < factor.NumInstruments(); j++ {
		if !domain.IsMissing(factor.At(t, j)) {
			members = append(members, j)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return factor.At(t, members[a]) > factor.At(t, members[b])
	})
	return members
}

// meanReturn averages the period-t returns of the given columns,
// zero-filling missing returns. The denominator is the bucket size, so a
// return gap dilutes rather than propagates.
func meanReturn(returns *domain.Panel, t int, cols []int) float64 {
	if len(cols) == 0 {
		return 0
	}
	sum := 0.0
	for _, j := range cols {
		if v := returns.At(t, j); !domain.IsMissing(v) {
			sum += v
		}
	}
	return sum / float64(len(cols))
}
