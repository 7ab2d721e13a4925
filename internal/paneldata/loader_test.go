package paneldata

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"factor-eval-lab/internal/domain"
)

const sampleCSV = `day_date,000001,000002,600000
2024-01-02,1.5,2.5,3.5
2024-01-03,1.6,,3.6
2024-01-04,1.7,2.7,3.7
`

func assertSamplePanel(t *testing.T, p *domain.Panel) {
	t.Helper()
	if p.NumPeriods() != 3 || p.NumInstruments() != 3 {
		t.Fatalf("expected 3x3 panel, got %dx%d", p.NumPeriods(), p.NumInstruments())
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !p.Period(0).Equal(want) {
		t.Errorf("expected first period %v, got %v", want, p.Period(0))
	}
	if p.Instrument(0) != "000001" {
		t.Errorf("expected instrument 000001, got %s", p.Instrument(0))
	}
	if p.At(0, 0) != 1.5 {
		t.Errorf("expected 1.5, got %f", p.At(0, 0))
	}
	// Empty cell parses as missing
	if !domain.IsMissing(p.At(1, 1)) {
		t.Errorf("expected missing cell, got %f", p.At(1, 1))
	}
}

func TestLoad_PlainCSV(t *testing.T) {
	p, err := Load(strings.NewReader(sampleCSV), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSamplePanel(t, p)
}

func TestLoad_CustomDateColumn(t *testing.T) {
	csv := strings.Replace(sampleCSV, "day_date", "trade_date", 1)
	p, err := Load(strings.NewReader(csv), Options{DateColumn: "trade_date"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSamplePanel(t, p)
}

func TestLoad_MissingDateColumn(t *testing.T) {
	_, err := Load(strings.NewReader(sampleCSV), Options{DateColumn: "nope"})
	if err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestLoad_DropsUnnamedIndexColumn(t *testing.T) {
	csv := `Unnamed: 0,day_date,000001
0,2024-01-02,1.5
1,2024-01-03,1.6
`
	p, err := Load(strings.NewReader(csv), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NumInstruments() != 1 || p.Instrument(0) != "000001" {
		t.Errorf("expected single instrument 000001, got %v", p.Instruments())
	}
}

func TestLoad_UnsortedRows(t *testing.T) {
	csv := `day_date,000001
2024-01-04,3
2024-01-02,1
2024-01-03,2
`
	p, err := Load(strings.NewReader(csv), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.At(0, 0) != 1 || p.At(2, 0) != 3 {
		t.Errorf("rows not reordered: %v %v", p.At(0, 0), p.At(2, 0))
	}
}

func TestLoad_DuplicateDatesRejected(t *testing.T) {
	csv := `day_date,000001
2024-01-02,1
2024-01-02,2
`
	_, err := Load(strings.NewReader(csv), Options{})
	if err == nil {
		t.Fatal("expected error for duplicate dates")
	}
}

func TestLoad_DateFormats(t *testing.T) {
	for _, label := range []string{"2024-01-02", "2024/01/02", "2024.01.02", "20240102"} {
		csv := "day_date,000001\n" + label + ",1.5\n"
		p, err := Load(strings.NewReader(csv), Options{})
		if err != nil {
			t.Errorf("format %q: %v", label, err)
			continue
		}
		want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		if !p.Period(0).Equal(want) {
			t.Errorf("format %q: got %v", label, p.Period(0))
		}
	}
}

func TestLoadFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.csv.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(sampleCSV)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	p, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSamplePanel(t, p)
}

func TestLoadFile_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("panel.csv")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(sampleCSV)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	p, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSamplePanel(t, p)
}

func TestLoadFile_ZipWithoutCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("readme.txt"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := LoadFile(path, Options{}); err == nil {
		t.Fatal("expected error for zip without csv entry")
	}
}

func TestLoadFile_XZRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.csv.xz")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := LoadFile(path, Options{})
	if err == nil || !strings.Contains(err.Error(), "xz") {
		t.Fatalf("expected xz rejection, got %v", err)
	}
}
