package domain

import "time"

// ICStats summarizes the rank-IC series of one evaluation.
type ICStats struct {
	Mean         float64 // mean over non-missing entries
	Std          float64 // sample standard deviation (n-1)
	ICIR         float64 // Mean/Std; missing when <2 valid entries or Std==0
	WinRate      float64 // fraction of non-missing entries above zero
	ValidPeriods int     // non-missing entry count
}

// LongShortResult holds the ±0.5-leg portfolio block.
type LongShortResult struct {
	AnnualizedReturn float64
	Turnover         float64
	PortfolioReturns TimeSeries
	NAV              TimeSeries
}

// LongOnlyResult holds the long-only portfolio block with its
// equal-weighted benchmark and excess-return path.
type LongOnlyResult struct {
	AnnualizedExcessReturn float64
	Turnover               float64
	PortfolioReturns       TimeSeries
	BenchmarkReturns       TimeSeries
	ExcessReturns          TimeSeries
	PortfolioNAV           TimeSeries
	BenchmarkNAV           TimeSeries
	ExcessNAV              TimeSeries
}

// Diagnostics counts per-period failures that were absorbed as missing
// values instead of aborting the call. A partial evaluation stays usable;
// these counters make the suppressed cases observable.
type Diagnostics struct {
	CorrelationFailures    int // degenerate correlation inputs recorded missing
	ICPeriodsBelowBreadth  int // periods with <2 jointly valid instruments
	GroupingPeriodsSkipped int // periods with fewer valid instruments than buckets
	LongShortPeriodsZeroed int // periods below the 10-instrument portfolio guard
	LongOnlyPeriodsZeroed  int
}

// EvaluationResult is the immutable aggregate produced once per
// evaluation run. It is assembled by the orchestrator, never mutated
// afterward, and owned by the caller for persistence or visualization.
// The engine performs no file or display I/O on its behalf.
type EvaluationResult struct {
	FactorName  string
	EvaluatedAt time.Time

	StartPeriod     time.Time
	EndPeriod       time.Time
	PeriodCount     int
	InstrumentCount int
	Inverted        bool

	Config EvaluationConfig

	IC                 ICStats
	ICSeries           TimeSeries
	CumulativeICSeries TimeSeries

	// BucketReturns holds one annualized return per quantile bucket,
	// ordered from bucket 1 (highest factor) to bucket k (lowest).
	BucketReturns []float64

	LongShort LongShortResult
	LongOnly  LongOnlyResult

	Diagnostics Diagnostics
}
