package domain

import "math"

// Smoothing method names accepted by SmoothingMethod.Name.
const (
	SmoothRollingMean = "rolling_mean"
	SmoothRollingStd  = "rolling_std"
	SmoothZScore      = "zscore"
	SmoothEMA         = "ema"
)

// PeriodsPerYear is the annualization base: a 252-period year, the
// trading-day convention shared by the grouping and portfolio engines.
const PeriodsPerYear = 252

// Annualize converts a cumulative return over nPeriods into an
// annualized rate under the 252-period convention.
func Annualize(cumulative float64, nPeriods int) float64 {
	if nPeriods <= 0 {
		return Missing
	}
	return math.Pow(1+cumulative, float64(PeriodsPerYear)/float64(nPeriods)) - 1
}

// SmoothingMethod is one step of the smoothing sequence. Window applies
// to the rolling transforms, Alpha to exponential smoothing; a zero value
// falls back to the SmoothingConfig default.
type SmoothingMethod struct {
	Name   string  `yaml:"name"`
	Window int     `yaml:"window,omitempty"`
	Alpha  float64 `yaml:"alpha,omitempty"`
}

// SmoothingConfig selects the causal transforms applied to the raw
// factor panel before evaluation. Methods run in order; an empty list
// (or Enabled=false) leaves the panel untouched.
type SmoothingConfig struct {
	Enabled bool              `yaml:"enabled"`
	Window  int               `yaml:"window"`
	Methods []SmoothingMethod `yaml:"methods"`
}

// EvaluationConfig carries every knob of one evaluation call. There is
// no global default instance; callers thread an explicit value through.
type EvaluationConfig struct {
	Buckets         int     `yaml:"buckets"`
	LongPercentile  float64 `yaml:"long_percentile"`
	ShortPercentile float64 `yaml:"short_percentile"`
	BenchmarkReturn float64 `yaml:"benchmark_return"`

	// InvertFactor flips the factor sign before evaluation, for factors
	// where a higher value predicts a lower return. Off by default; the
	// caller chooses, the orchestrator never inverts implicitly.
	InvertFactor bool `yaml:"invert_factor"`

	Smoothing SmoothingConfig `yaml:"smoothing"`
}

// DefaultEvaluationConfig returns the standard configuration: 10 buckets,
// 90/10 percentile thresholds, window-5 smoothing available but disabled,
// zero benchmark return, no inversion.
func DefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		Buckets:         10,
		LongPercentile:  90,
		ShortPercentile: 10,
		BenchmarkReturn: 0,
		Smoothing: SmoothingConfig{
			Enabled: false,
			Window:  5,
		},
	}
}

// Validate rejects invalid configuration values before any per-period
// loop starts.
func (c EvaluationConfig) Validate() error {
	if c.Buckets < 2 {
		return &ConfigurationError{Field: "buckets", Reason: "must be at least 2"}
	}
	if c.LongPercentile < 0 || c.LongPercentile > 100 {
		return &ConfigurationError{Field: "long_percentile", Reason: "must be in [0,100]"}
	}
	if c.ShortPercentile < 0 || c.ShortPercentile > 100 {
		return &ConfigurationError{Field: "short_percentile", Reason: "must be in [0,100]"}
	}
	if c.LongPercentile <= c.ShortPercentile {
		return &ConfigurationError{Field: "long_percentile", Reason: "must exceed short_percentile"}
	}
	return c.Smoothing.Validate()
}

// Validate checks the smoothing sequence.
func (c SmoothingConfig) Validate() error {
	if c.Window < 0 {
		return &ConfigurationError{Field: "smoothing.window", Reason: "must be positive"}
	}
	for _, m := range c.Methods {
		switch m.Name {
		case SmoothRollingMean, SmoothRollingStd, SmoothZScore:
			if m.Window < 0 || (m.Window == 0 && c.Window < 1) {
				return &ConfigurationError{Field: "smoothing.methods", Reason: "rolling window must be at least 1"}
			}
		case SmoothEMA:
			if m.Alpha <= 0 || m.Alpha > 1 {
				return &ConfigurationError{Field: "smoothing.methods", Reason: "ema alpha must be in (0,1]"}
			}
		default:
			return &ConfigurationError{Field: "smoothing.methods", Reason: "unknown method " + m.Name}
		}
	}
	return nil
}
