package reporting

import (
	"fmt"
	"strings"
	"time"

	"factor-eval-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Factor Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Factors: %d | Runs: %d\n\n", r.FactorCount, r.RunCount))

	// Result rows
	sb.WriteString("## Evaluation Runs\n\n")
	if len(r.Results) > 0 {
		sb.WriteString("| Factor | Evaluated | Periods | Instruments | IC Mean | ICIR | WinRate | L/S Annlzd | L/S Turnover | Excess Annlzd | Suppressed |\n")
		sb.WriteString("|--------|-----------|---------|-------------|---------|------|---------|------------|--------------|---------------|------------|\n")
		for _, row := range r.Results {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %d |\n",
				row.FactorName, row.EvaluatedAt.Format("2006-01-02 15:04"),
				row.PeriodCount, row.InstrumentCount,
				row.ICMean, row.ICIR, row.ICWinRate,
				row.LongShortAnnualized, row.LongShortTurnover,
				row.LongOnlyExcessAnnlzd, row.SuppressedFailures))
		}
	} else {
		sb.WriteString("No evaluation runs stored.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderResultMarkdown renders one full evaluation result, including
// bucket returns and diagnostics, as Markdown string.
func RenderResultMarkdown(res *domain.EvaluationResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Factor: %s\n\n", res.FactorName))
	sb.WriteString(fmt.Sprintf("Evaluated: %s\n\n", res.EvaluatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s to %s (%d periods, %d instruments)\n\n",
		res.StartPeriod.Format("2006-01-02"), res.EndPeriod.Format("2006-01-02"),
		res.PeriodCount, res.InstrumentCount))
	if res.Inverted {
		sb.WriteString("Factor signal inverted before evaluation.\n\n")
	}

	sb.WriteString("## Rank IC\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mean | %.6f |\n", res.IC.Mean))
	sb.WriteString(fmt.Sprintf("| Std | %.6f |\n", res.IC.Std))
	sb.WriteString(fmt.Sprintf("| ICIR | %.6f |\n", res.IC.ICIR))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", res.IC.WinRate))
	sb.WriteString(fmt.Sprintf("| Valid Periods | %d |\n", res.IC.ValidPeriods))
	sb.WriteString("\n")

	sb.WriteString("## Quantile Bucket Returns (annualized)\n\n")
	sb.WriteString("| Bucket | Return |\n")
	sb.WriteString("|--------|--------|\n")
	for i, ret := range res.BucketReturns {
		sb.WriteString(fmt.Sprintf("| %d | %.6f |\n", i+1, ret))
	}
	sb.WriteString("\n")

	sb.WriteString("## Portfolios\n\n")
	sb.WriteString("| Portfolio | Annualized | Turnover |\n")
	sb.WriteString("|-----------|------------|----------|\n")
	sb.WriteString(fmt.Sprintf("| Long/Short | %.6f | %.6f |\n",
		res.LongShort.AnnualizedReturn, res.LongShort.Turnover))
	sb.WriteString(fmt.Sprintf("| Long-Only Excess | %.6f | %.6f |\n",
		res.LongOnly.AnnualizedExcessReturn, res.LongOnly.Turnover))
	sb.WriteString("\n")

	d := res.Diagnostics
	if d.CorrelationFailures+d.ICPeriodsBelowBreadth+d.GroupingPeriodsSkipped+
		d.LongShortPeriodsZeroed+d.LongOnlyPeriodsZeroed > 0 {
		sb.WriteString("## Diagnostics\n\n")
		sb.WriteString("| Counter | Value |\n")
		sb.WriteString("|---------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Correlation failures | %d |\n", d.CorrelationFailures))
		sb.WriteString(fmt.Sprintf("| IC periods below breadth | %d |\n", d.ICPeriodsBelowBreadth))
		sb.WriteString(fmt.Sprintf("| Grouping periods skipped | %d |\n", d.GroupingPeriodsSkipped))
		sb.WriteString(fmt.Sprintf("| Long/short periods zeroed | %d |\n", d.LongShortPeriodsZeroed))
		sb.WriteString(fmt.Sprintf("| Long-only periods zeroed | %d |\n", d.LongOnlyPeriodsZeroed))
		sb.WriteString("\n")
	}

	return sb.String()
}
