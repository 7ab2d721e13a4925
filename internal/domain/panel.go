package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Missing is the sentinel for an absent cell value. Panels are dense:
// every period row carries every instrument column, gaps hold NaN.
var Missing = math.NaN()

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Panel is a two-dimensional table of float64 values indexed by period
// (rows, chronological and unique) and instrument identifier (columns,
// unique). It is the canonical wide representation shared by all engines;
// the long record-per-row form exists only at the boundary (FromRecords).
//
// A Panel is read-only after construction. Transforms return new panels.
type Panel struct {
	periods     []time.Time
	instruments []string
	values      [][]float64 // [period][instrument]
}

// NewPanel builds a panel from its parts. Periods must be strictly
// ascending and unique, instruments unique, and values shaped
// len(periods) x len(instruments). All inputs are copied.
func NewPanel(periods []time.Time, instruments []string, values [][]float64) (*Panel, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("panel: no periods")
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("panel: no instruments")
	}
	if len(values) != len(periods) {
		return nil, fmt.Errorf("panel: %d value rows for %d periods", len(values), len(periods))
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i-1].Before(periods[i]) {
			return nil, fmt.Errorf("panel: periods not strictly ascending at index %d", i)
		}
	}
	seen := make(map[string]struct{}, len(instruments))
	for _, id := range instruments {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("panel: duplicate instrument %q", id)
		}
		seen[id] = struct{}{}
	}

	p := &Panel{
		periods:     append([]time.Time(nil), periods...),
		instruments: append([]string(nil), instruments...),
		values:      make([][]float64, len(periods)),
	}
	for i, row := range values {
		if len(row) != len(instruments) {
			return nil, fmt.Errorf("panel: row %d has %d cells for %d instruments", i, len(row), len(instruments))
		}
		p.values[i] = append([]float64(nil), row...)
	}
	return p, nil
}

// NumPeriods returns the number of period rows.
func (p *Panel) NumPeriods() int { return len(p.periods) }

// NumInstruments returns the number of instrument columns.
func (p *Panel) NumInstruments() int { return len(p.instruments) }

// Period returns the period label of row i.
func (p *Panel) Period(i int) time.Time { return p.periods[i] }

// Instrument returns the instrument label of column j.
func (p *Panel) Instrument(j int) string { return p.instruments[j] }

// Periods returns a copy of the period index.
func (p *Panel) Periods() []time.Time {
	return append([]time.Time(nil), p.periods...)
}

// Instruments returns a copy of the instrument labels.
func (p *Panel) Instruments() []string {
	return append([]string(nil), p.instruments...)
}

// At returns the value at period row i, instrument column j.
func (p *Panel) At(i, j int) float64 { return p.values[i][j] }

// Row returns a copy of period row i.
func (p *Panel) Row(i int) []float64 {
	return append([]float64(nil), p.values[i]...)
}

// Clone returns a deep copy.
func (p *Panel) Clone() *Panel {
	out, _ := NewPanel(p.periods, p.instruments, p.values)
	return out
}

// WithValues returns a new panel sharing this panel's index and columns
// but holding the given values. The shape must match.
func (p *Panel) WithValues(values [][]float64) (*Panel, error) {
	return NewPanel(p.periods, p.instruments, values)
}

// Equal reports whether two panels have identical labels and values,
// treating missing cells as equal to each other.
func (p *Panel) Equal(other *Panel) bool {
	if other == nil || len(p.periods) != len(other.periods) || len(p.instruments) != len(other.instruments) {
		return false
	}
	for i, t := range p.periods {
		if !t.Equal(other.periods[i]) {
			return false
		}
	}
	for j, id := range p.instruments {
		if id != other.instruments[j] {
			return false
		}
	}
	for i := range p.values {
		for j := range p.values[i] {
			a, b := p.values[i][j], other.values[i][j]
			if IsMissing(a) != IsMissing(b) {
				return false
			}
			if !IsMissing(a) && a != b {
				return false
			}
		}
	}
	return true
}

// Record is one cell of a panel in long form.
type Record struct {
	Period     time.Time
	Instrument string
	Value      float64
}

// FromRecords assembles a wide panel from long-form records. Periods are
// sorted ascending; instrument columns keep first-appearance order so that
// downstream tie-breaking stays stable. Cells not covered by any record
// are missing; duplicate (period, instrument) records are an error.
func FromRecords(records []Record) (*Panel, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("panel: no records")
	}

	periodSet := make(map[time.Time]struct{})
	var instruments []string
	colIdx := make(map[string]int)
	for _, r := range records {
		periodSet[r.Period] = struct{}{}
		if _, ok := colIdx[r.Instrument]; !ok {
			colIdx[r.Instrument] = len(instruments)
			instruments = append(instruments, r.Instrument)
		}
	}

	periods := make([]time.Time, 0, len(periodSet))
	for t := range periodSet {
		periods = append(periods, t)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	rowIdx := make(map[time.Time]int, len(periods))
	for i, t := range periods {
		rowIdx[t] = i
	}

	values := make([][]float64, len(periods))
	filled := make([][]bool, len(periods))
	for i := range values {
		values[i] = make([]float64, len(instruments))
		filled[i] = make([]bool, len(instruments))
		for j := range values[i] {
			values[i][j] = Missing
		}
	}
	for _, r := range records {
		i, j := rowIdx[r.Period], colIdx[r.Instrument]
		if filled[i][j] {
			return nil, fmt.Errorf("panel: duplicate record for %s/%s", r.Period.Format("2006-01-02"), r.Instrument)
		}
		values[i][j] = r.Value
		filled[i][j] = true
	}

	return NewPanel(periods, instruments, values)
}

// Records flattens the panel to long form, skipping missing cells.
// Rows are emitted period-major in column order.
func (p *Panel) Records() []Record {
	var out []Record
	for i, t := range p.periods {
		for j, id := range p.instruments {
			v := p.values[i][j]
			if IsMissing(v) {
				continue
			}
			out = append(out, Record{Period: t, Instrument: id, Value: v})
		}
	}
	return out
}
