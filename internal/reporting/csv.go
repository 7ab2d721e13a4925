package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders result rows as CSV string.
func RenderCSV(rows []ResultRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("factor_name,evaluated_at,start_period,end_period,period_count,instrument_count,inverted,buckets,")
	sb.WriteString("ic_mean,ic_std,icir,ic_win_rate,ic_valid_periods,")
	sb.WriteString("long_short_annualized,long_short_turnover,long_only_excess_annualized,long_only_turnover,")
	sb.WriteString("suppressed_failures\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%d,%t,%d,%.6f,%.6f,%.6f,%.6f,%d,%.6f,%.6f,%.6f,%.6f,%d\n",
			r.FactorName,
			r.EvaluatedAt.Format(time.RFC3339),
			r.StartPeriod.Format("2006-01-02"),
			r.EndPeriod.Format("2006-01-02"),
			r.PeriodCount,
			r.InstrumentCount,
			r.Inverted,
			r.Buckets,
			r.ICMean,
			r.ICStd,
			r.ICIR,
			r.ICWinRate,
			r.ICValidPeriods,
			r.LongShortAnnualized,
			r.LongShortTurnover,
			r.LongOnlyExcessAnnlzd,
			r.LongOnlyTurnover,
			r.SuppressedFailures,
		))
	}

	return sb.String()
}
