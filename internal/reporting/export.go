package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"factor-eval-lab/internal/domain"
)

// Series export filenames. One file per chart pane; external tooling
// renders the 2x2 overview from these.
const (
	ICSeriesFile      = "ic_series.csv"
	BucketReturnsFile = "bucket_returns.csv"
	LongShortNAVFile  = "long_short_nav.csv"
	ExcessReturnsFile = "excess_returns.csv"
)

// WriteSeriesFiles exports the per-period series of one result into dir,
// which is created if absent. Missing values render as NaN.
func WriteSeriesFiles(dir string, res *domain.EvaluationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		ICSeriesFile:      renderICSeries(res),
		BucketReturnsFile: renderBucketReturns(res),
		LongShortNAVFile:  renderLongShortNAV(res),
		ExcessReturnsFile: renderExcessReturns(res),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func renderICSeries(res *domain.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("period,ic,cumulative_ic\n")
	for i := 0; i < res.ICSeries.Len(); i++ {
		sb.WriteString(fmt.Sprintf("%s,%g,%g\n",
			res.ICSeries.Period(i).Format("2006-01-02"),
			res.ICSeries.Value(i),
			res.CumulativeICSeries.Value(i)))
	}
	return sb.String()
}

func renderBucketReturns(res *domain.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("bucket,annualized_return\n")
	for i, ret := range res.BucketReturns {
		sb.WriteString(fmt.Sprintf("%d,%g\n", i+1, ret))
	}
	return sb.String()
}

func renderLongShortNAV(res *domain.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("period,return,nav\n")
	ls := res.LongShort
	for i := 0; i < ls.PortfolioReturns.Len(); i++ {
		sb.WriteString(fmt.Sprintf("%s,%g,%g\n",
			ls.PortfolioReturns.Period(i).Format("2006-01-02"),
			ls.PortfolioReturns.Value(i),
			ls.NAV.Value(i)))
	}
	return sb.String()
}

func renderExcessReturns(res *domain.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("period,portfolio_return,benchmark_return,excess_return,portfolio_nav,benchmark_nav,excess_nav\n")
	lo := res.LongOnly
	for i := 0; i < lo.PortfolioReturns.Len(); i++ {
		sb.WriteString(fmt.Sprintf("%s,%g,%g,%g,%g,%g,%g\n",
			lo.PortfolioReturns.Period(i).Format("2006-01-02"),
			lo.PortfolioReturns.Value(i),
			lo.BenchmarkReturns.Value(i),
			lo.ExcessReturns.Value(i),
			lo.PortfolioNAV.Value(i),
			lo.BenchmarkNAV.Value(i),
			lo.ExcessNAV.Value(i)))
	}
	return sb.String()
}
