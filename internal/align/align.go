// Package align projects a factor panel and a return panel onto their
// common period and instrument sets.
package align

import (
	"sort"
	"strings"
	"time"

	"factor-eval-lab/internal/domain"
)

// Pair is an aligned factor/return panel pair. Both panels have
// identical shape and identical period/instrument labels; downstream
// engines rely on that without re-checking.
type Pair struct {
	Factor  *domain.Panel
	Returns *domain.Panel
}

// Canonical strips a dotted exchange suffix from an instrument
// identifier: "000001.SZ" becomes "000001". Identifiers without a dot
// pass through unchanged.
func Canonical(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// Align intersects the periods and instruments of the two panels, sorts
// both intersections ascending, and returns equally shaped projections
// labeled with canonical (un-suffixed) instrument identifiers. Matching
// tolerates a dotted exchange suffix on either side. Returns
// *domain.AlignmentError when either intersection is empty.
//
// Align is pure: it never mutates its inputs, and re-aligning an already
// aligned pair returns panels equal to the inputs.
func Align(factor, returns *domain.Panel) (Pair, error) {
	factorCols := canonicalColumns(factor)
	returnCols := canonicalColumns(returns)

	var common []string
	for id := range factorCols {
		if _, ok := returnCols[id]; ok {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return Pair{}, &domain.AlignmentError{Reason: "no common instruments"}
	}
	sort.Strings(common)

	periods := commonPeriods(factor, returns)
	if len(periods) == 0 {
		return Pair{}, &domain.AlignmentError{Reason: "no common periods"}
	}

	factorOut, err := project(factor, periods, common, factorCols)
	if err != nil {
		return Pair{}, err
	}
	returnsOut, err := project(returns, periods, common, returnCols)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Factor: factorOut, Returns: returnsOut}, nil
}

// canonicalColumns maps canonical instrument id to column index. When two
// columns collapse to the same canonical id the first column wins.
func canonicalColumns(p *domain.Panel) map[string]int {
	cols := make(map[string]int, p.NumInstruments())
	for j := 0; j < p.NumInstruments(); j++ {
		id := Canonical(p.Instrument(j))
		if _, exists := cols[id]; !exists {
			cols[id] = j
		}
	}
	return cols
}

// commonPeriods returns the sorted intersection of the two period sets.
func commonPeriods(a, b *domain.Panel) []time.Time {
	rows := make(map[int64]struct{}, b.NumPeriods())
	for i := 0; i < b.NumPeriods(); i++ {
		rows[b.Period(i).UnixNano()] = struct{}{}
	}
	var out []time.Time
	for i := 0; i < a.NumPeriods(); i++ {
		t := a.Period(i)
		if _, ok := rows[t.UnixNano()]; ok {
			out = append(out, t)
		}
	}
	// Panel periods are already ascending, so the intersection is too.
	return out
}

// project restricts p to the given periods and canonical instruments.
func project(p *domain.Panel, periods []time.Time, instruments []string, cols map[string]int) (*domain.Panel, error) {
	rowIdx := make(map[int64]int, p.NumPeriods())
	for i := 0; i < p.NumPeriods(); i++ {
		rowIdx[p.Period(i).UnixNano()] = i
	}

	values := make([][]float64, len(periods))
	for i, t := range periods {
		src := rowIdx[t.UnixNano()]
		row := make([]float64, len(instruments))
		for j, id := range instruments {
			row[j] = p.At(src, cols[id])
		}
		values[i] = row
	}
	return domain.NewPanel(periods, instruments, values)
}
