// Package paneldata loads wide panels from delimited text files, the
// boundary format produced by the external signal generator and the
// return-data vendor. Compressed variants (.gz, .zip) are detected by
// extension and unwrapped transparently.
package paneldata

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"factor-eval-lab/internal/domain"
)

// DefaultDateColumn is the date column name used by the upstream
// exports when none is configured.
const DefaultDateColumn = "day_date"

// dateFormats are tried in order when parsing the date column.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
	time.RFC3339,
}

// Options configures panel parsing.
type Options struct {
	// DateColumn names the column holding period labels. Defaults to
	// DefaultDateColumn.
	DateColumn string
}

func (o Options) dateColumn() string {
	if o.DateColumn == "" {
		return DefaultDateColumn
	}
	return o.DateColumn
}

// LoadFile reads a delimited panel file, decompressing by extension:
// .gz wraps gzip, .zip reads the first .csv entry, anything else is
// parsed as plain text. .xz archives are rejected explicitly.
func LoadFile(path string, opts Options) (*domain.Panel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer zr.Close()
		return Load(zr, opts)
	case ".zip":
		return loadZip(path, opts)
	case ".xz":
		return nil, fmt.Errorf("load %s: xz compression is not supported, decompress the file first", path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return Load(f, opts)
	}
}

// loadZip reads the first .csv entry of a zip archive.
func loadZip(path string, opts Options) (*domain.Panel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	for _, entry := range zr.File {
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".csv") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", entry.Name, err)
		}
		defer rc.Close()
		return Load(rc, opts)
	}
	return nil, fmt.Errorf("zip %s contains no .csv entry", path)
}

// Load parses delimited text into a panel. The date column becomes the
// period index; every other column is an instrument, with unparseable
// or empty cells recorded as missing. A leading unnamed index column
// (pandas-style) is dropped.
func Load(r io.Reader, opts Options) (*domain.Panel, error) {
	dateCol := opts.dateColumn()

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{dateCol: series.String}),
	)
	if df.Error() != nil {
		return nil, fmt.Errorf("parse delimited panel: %w", df.Error())
	}

	names := df.Names()
	hasDate := false
	var instruments []string
	for _, name := range names {
		switch {
		case name == dateCol:
			hasDate = true
		case name == "" || strings.HasPrefix(name, "Unnamed:"):
			// pandas row-index artifact
		default:
			instruments = append(instruments, name)
		}
	}
	if !hasDate {
		return nil, fmt.Errorf("parse delimited panel: date column %q not found", dateCol)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("parse delimited panel: no instrument columns")
	}

	labels := df.Col(dateCol).Records()
	periods := make([]time.Time, len(labels))
	for i, label := range labels {
		t, err := parseDate(label)
		if err != nil {
			return nil, fmt.Errorf("parse delimited panel: row %d: %w", i, err)
		}
		periods[i] = t
	}

	columns := make([][]float64, len(instruments))
	for j, name := range instruments {
		columns[j] = df.Col(name).Float()
	}

	// Rows can arrive in any order; the panel index must be ascending.
	records := make([]domain.Record, 0, len(periods)*len(instruments))
	for i, t := range periods {
		for j, name := range instruments {
			records = append(records, domain.Record{Period: t, Instrument: name, Value: columns[j][i]})
		}
	}
	p, err := domain.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("parse delimited panel: %w", err)
	}
	return p, nil
}

// parseDate tries the supported date layouts in order.
func parseDate(label string) (time.Time, error) {
	label = strings.TrimSpace(label)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, label); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", label)
}
