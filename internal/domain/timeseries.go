package domain

import (
	"fmt"
	"time"
)

// TimeSeries is an ordered sequence of (period, value) pairs. Values may
// be missing (NaN); the period still occupies its slot so that every
// series produced from one aligned pair has identical length and index.
type TimeSeries struct {
	periods []time.Time
	values  []float64
}

// NewTimeSeries builds a series from parallel slices, copying both.
func NewTimeSeries(periods []time.Time, values []float64) (TimeSeries, error) {
	if len(periods) != len(values) {
		return TimeSeries{}, fmt.Errorf("timeseries: %d periods for %d values", len(periods), len(values))
	}
	return TimeSeries{
		periods: append([]time.Time(nil), periods...),
		values:  append([]float64(nil), values...),
	}, nil
}

// Len returns the number of entries, missing ones included.
func (s TimeSeries) Len() int { return len(s.periods) }

// Period returns the period label at index i.
func (s TimeSeries) Period(i int) time.Time { return s.periods[i] }

// Value returns the value at index i.
func (s TimeSeries) Value(i int) float64 { return s.values[i] }

// Values returns a copy of the value slice.
func (s TimeSeries) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Periods returns a copy of the period index.
func (s TimeSeries) Periods() []time.Time {
	return append([]time.Time(nil), s.periods...)
}

// ValidCount returns the number of non-missing entries.
func (s TimeSeries) ValidCount() int {
	n := 0
	for _, v := range s.values {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}

// Cumulative returns the running sum of the series with missing entries
// contributing zero, so the output is fully defined once any value has
// been observed. Used for the cumulative rank-IC chart series.
func (s TimeSeries) Cumulative() TimeSeries {
	out := TimeSeries{
		periods: append([]time.Time(nil), s.periods...),
		values:  make([]float64, len(s.values)),
	}
	acc := 0.0
	for i, v := range s.values {
		if !IsMissing(v) {
			acc += v
		}
		out.values[i] = acc
	}
	return out
}
