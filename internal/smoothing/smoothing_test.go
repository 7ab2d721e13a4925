package smoothing

import (
	"math"
	"testing"
	"time"

	"factor-eval-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func columnPanel(t *testing.T, col []float64) *domain.Panel {
	t.Helper()
	periods := make([]time.Time, len(col))
	values := make([][]float64, len(col))
	for i := range col {
		periods[i] = day(i)
		values[i] = []float64{col[i]}
	}
	p, err := domain.NewPanel(periods, []string{"000001"}, values)
	if err != nil {
		t.Fatalf("build panel: %v", err)
	}
	return p
}

func column(p *domain.Panel) []float64 {
	out := make([]float64, p.NumPeriods())
	for i := range out {
		out[i] = p.At(i, 0)
	}
	return out
}

func assertColumn(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if domain.IsMissing(want[i]) {
			if !domain.IsMissing(got[i]) {
				t.Errorf("index %d: expected missing, got %f", i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestApply_DisabledIsNoOp(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3})

	out, err := Apply(p, domain.SmoothingConfig{Enabled: false, Window: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != p {
		t.Error("disabled smoothing should return the input panel")
	}

	// Enabled with no methods is a no-op too
	out, err = Apply(p, domain.SmoothingConfig{Enabled: true, Window: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != p {
		t.Error("empty method list should return the input panel")
	}
}

func TestApply_RejectsInvalidConfig(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3})
	_, err := Apply(p, domain.SmoothingConfig{
		Enabled: true,
		Methods: []domain.SmoothingMethod{{Name: "median"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestRollingMean_ShrinkingWindow(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3, 4, 5})
	out := RollingMean(p, 3)

	assertColumn(t, column(out), []float64{1, 1.5, 2, 3, 4})
}

func TestRollingMean_SkipsMissing(t *testing.T) {
	p := columnPanel(t, []float64{1, domain.Missing, 3})
	out := RollingMean(p, 3)

	// Window at index 1 holds only the value 1; at index 2, {1, 3}
	assertColumn(t, column(out), []float64{1, 1, 2})
}

func TestRollingMean_AllMissingWindowStaysMissing(t *testing.T) {
	p := columnPanel(t, []float64{domain.Missing, domain.Missing, 5})
	out := RollingMean(p, 2)

	assertColumn(t, column(out), []float64{domain.Missing, domain.Missing, 5})
}

func TestRollingStd_FirstPeriodMissing(t *testing.T) {
	p := columnPanel(t, []float64{2, 4, 4, 4, 5})
	out := RollingStd(p, 3)

	got := column(out)
	if !domain.IsMissing(got[0]) {
		t.Errorf("first period std should be missing, got %f", got[0])
	}
	// {2,4}: sample std = sqrt(2)
	if math.Abs(got[1]-math.Sqrt2) > 1e-9 {
		t.Errorf("expected sqrt(2), got %f", got[1])
	}
	// {4,4,5}: mean 13/3, sample var 1/3
	if math.Abs(got[4]-math.Sqrt(1.0/3.0)) > 1e-9 {
		t.Errorf("expected sqrt(1/3), got %f", got[4])
	}
}

func TestZScore_NonFiniteBecomesZero(t *testing.T) {
	// Constant window: std 0 -> z would be 0/0
	p := columnPanel(t, []float64{5, 5, 5})
	out := ZScore(p, 3)
	assertColumn(t, column(out), []float64{0, 0, 0})

	// Missing input cells standardize to 0 as well
	p = columnPanel(t, []float64{1, domain.Missing, 3})
	out = ZScore(p, 3)
	got := column(out)
	if got[1] != 0 {
		t.Errorf("missing input should zscore to 0, got %f", got[1])
	}
}

func TestZScore_Standardizes(t *testing.T) {
	p := columnPanel(t, []float64{1, 3})
	out := ZScore(p, 2)

	// Window {1,3}: mean 2, std sqrt(2); z(3) = 1/sqrt(2)
	got := column(out)
	if math.Abs(got[1]-1/math.Sqrt2) > 1e-9 {
		t.Errorf("expected %f, got %f", 1/math.Sqrt2, got[1])
	}
}

func TestEMA_Recursion(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3})
	out := EMA(p, 0.5)

	// Seeded at 1, then 0.5*2+0.5*1=1.5, then 0.5*3+0.5*1.5=2.25
	assertColumn(t, column(out), []float64{1, 1.5, 2.25})
}

func TestEMA_MissingCarriesPrevious(t *testing.T) {
	p := columnPanel(t, []float64{domain.Missing, 2, domain.Missing, 4})
	out := EMA(p, 0.5)

	// Pre-seed entries stay missing; the gap carries 2 forward, then
	// 0.5*4+0.5*2=3
	assertColumn(t, column(out), []float64{domain.Missing, 2, 2, 3})
}

func TestApply_RunsMethodsInOrder(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3, 4})
	cfg := domain.SmoothingConfig{
		Enabled: true,
		Window:  2,
		Methods: []domain.SmoothingMethod{
			{Name: domain.SmoothRollingMean},
			{Name: domain.SmoothEMA, Alpha: 1}, // alpha 1 leaves values unchanged
		},
	}

	out, err := Apply(p, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertColumn(t, column(out), []float64{1, 1.5, 2.5, 3.5})

	// Input untouched
	assertColumn(t, column(p), []float64{1, 2, 3, 4})
}

func TestApply_MethodWindowOverridesDefault(t *testing.T) {
	p := columnPanel(t, []float64{1, 2, 3, 4})
	cfg := domain.SmoothingConfig{
		Enabled: true,
		Window:  2,
		Methods: []domain.SmoothingMethod{{Name: domain.SmoothRollingMean, Window: 4}},
	}

	out, err := Apply(p, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertColumn(t, column(out), []float64{1, 1.5, 2, 2.5})
}
