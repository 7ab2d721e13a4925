// Package smoothing applies causal per-instrument transforms to factor
// panels. Every transform returns a new panel of identical shape and
// never mutates its input.
package smoothing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"factor-eval-lab/internal/domain"
)

// Apply runs the configured method sequence in order. A disabled config
// or an empty method list is a no-op returning the input panel.
func Apply(p *domain.Panel, cfg domain.SmoothingConfig) (*domain.Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled || len(cfg.Methods) == 0 {
		return p, nil
	}

	out := p
	for _, m := range cfg.Methods {
		window := m.Window
		if window == 0 {
			window = cfg.Window
		}
		switch m.Name {
		case domain.SmoothRollingMean:
			out = RollingMean(out, window)
		case domain.SmoothRollingStd:
			out = RollingStd(out, window)
		case domain.SmoothZScore:
			out = ZScore(out, window)
		case domain.SmoothEMA:
			out = EMA(out, m.Alpha)
		default:
			return nil, fmt.Errorf("smoothing: unknown method %q", m.Name)
		}
	}
	return out, nil
}

// RollingMean replaces each cell with the mean of the trailing window
// for that instrument. The first window-1 periods use a shrinking
// window; a cell with no valid observation in its window stays missing.
func RollingMean(p *domain.Panel, window int) *domain.Panel {
	return transformColumns(p, func(col []float64) []float64 {
		out := make([]float64, len(col))
		for i := range col {
			mean, n := windowMoments(col, i, window)
			if n == 0 {
				out[i] = domain.Missing
			} else {
				out[i] = mean
			}
		}
		return out
	})
}

// RollingStd replaces each cell with the sample standard deviation (n-1)
// of the trailing window. Windows with fewer than 2 valid observations
// yield missing, so the very first period is always missing.
func RollingStd(p *domain.Panel, window int) *domain.Panel {
	return transformColumns(p, func(col []float64) []float64 {
		out := make([]float64, len(col))
		for i := range col {
			out[i] = windowStd(col, i, window)
		}
		return out
	})
}

// ZScore standardizes each cell against its trailing window:
// (x - mean) / std. Any non-finite result, including a zero rolling
// std or a missing input, becomes 0.
func ZScore(p *domain.Panel, window int) *domain.Panel {
	return transformColumns(p, func(col []float64) []float64 {
		out := make([]float64, len(col))
		for i := range col {
			mean, n := windowMoments(col, i, window)
			std := windowStd(col, i, window)
			z := domain.Missing
			if n > 0 {
				z = (col[i] - mean) / std
			}
			if math.IsNaN(z) || math.IsInf(z, 0) {
				z = 0
			}
			out[i] = z
		}
		return out
	})
}

// EMA applies non-adjusted exponential smoothing,
// s_t = alpha*x_t + (1-alpha)*s_{t-1}, seeded with the first valid
// observation. Missing inputs carry the previous smoothed value forward;
// entries before the seed stay missing.
func EMA(p *domain.Panel, alpha float64) *domain.Panel {
	return transformColumns(p, func(col []float64) []float64 {
		out := make([]float64, len(col))
		s := domain.Missing
		for i, x := range col {
			switch {
			case domain.IsMissing(x):
				out[i] = s
			case domain.IsMissing(s):
				s = x
				out[i] = s
			default:
				s = alpha*x + (1-alpha)*s
				out[i] = s
			}
		}
		return out
	})
}

// transformColumns applies fn to every instrument column independently
// and assembles the results into a fresh panel.
func transformColumns(p *domain.Panel, fn func(col []float64) []float64) *domain.Panel {
	nP, nI := p.NumPeriods(), p.NumInstruments()
	values := make([][]float64, nP)
	for i := range values {
		values[i] = make([]float64, nI)
	}
	col := make([]float64, nP)
	for j := 0; j < nI; j++ {
		for i := 0; i < nP; i++ {
			col[i] = p.At(i, j)
		}
		outCol := fn(col)
		for i := 0; i < nP; i++ {
			values[i][j] = outCol[i]
		}
	}
	out, err := p.WithValues(values)
	if err != nil {
		// Shape is preserved by construction.
		panic(err)
	}
	return out
}

// windowValid collects the non-missing observations of the trailing
// window ending at index i.
func windowValid(col []float64, i, window int) []float64 {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	valid := make([]float64, 0, i-start+1)
	for k := start; k <= i; k++ {
		if !domain.IsMissing(col[k]) {
			valid = append(valid, col[k])
		}
	}
	return valid
}

// windowMoments returns the mean over valid observations in the trailing
// window ending at index i, plus the valid count.
func windowMoments(col []float64, i, window int) (mean float64, n int) {
	valid := windowValid(col, i, window)
	if len(valid) == 0 {
		return domain.Missing, 0
	}
	return stat.Mean(valid, nil), len(valid)
}

// windowStd returns the sample standard deviation over valid
// observations in the trailing window, or missing below 2 observations.
func windowStd(col []float64, i, window int) float64 {
	valid := windowValid(col, i, window)
	if len(valid) < 2 {
		return domain.Missing
	}
	return stat.StdDev(valid, nil)
}
