package reporting

import "time"

// Report represents the evaluation history report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	FactorCount int
	RunCount    int

	// Result rows (sorted by factor_name, evaluated_at)
	Results []ResultRow
}

// ResultRow represents one evaluation run in the results table. It is
// the flat view of a stored result summary.
type ResultRow struct {
	FactorName  string
	EvaluatedAt time.Time

	StartPeriod     time.Time
	EndPeriod       time.Time
	PeriodCount     int
	InstrumentCount int
	Inverted        bool
	Buckets         int

	ICMean         float64
	ICStd          float64
	ICIR           float64
	ICWinRate      float64
	ICValidPeriods int

	LongShortAnnualized  float64
	LongShortTurnover    float64
	LongOnlyExcessAnnlzd float64
	LongOnlyTurnover     float64

	SuppressedFailures int // all diagnostics counters combined
}
