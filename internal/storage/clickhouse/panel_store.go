package clickhouse

import (
	"context"
	"fmt"
	"time"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/observability"
	"factor-eval-lab/internal/storage"
)

// PanelStore implements storage.PanelStore using ClickHouse. Panels are
// stored in long form, one row per valid (dataset, period, instrument)
// cell; missing cells are simply absent and reappear as missing when the
// wide panel is reassembled.
type PanelStore struct {
	conn *Conn
}

// NewPanelStore creates a new PanelStore.
func NewPanelStore(conn *Conn) *PanelStore {
	return &PanelStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PanelStore = (*PanelStore)(nil)

// InsertPanel stores a panel under a dataset name. Fails with
// ErrDuplicateKey if any rows for the dataset already exist.
func (s *PanelStore) InsertPanel(ctx context.Context, dataset string, p *domain.Panel) error {
	if dataset == "" || p == nil {
		return storage.ErrInvalidInput
	}

	started := time.Now()
	err := s.insertPanel(ctx, dataset, p)
	observability.RecordDBQuery("clickhouse", "insert_panel", time.Since(started).Seconds(), err)
	return err
}

func (s *PanelStore) insertPanel(ctx context.Context, dataset string, p *domain.Panel) error {
	exists, err := s.exists(ctx, dataset)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	records := p.Records()
	if len(records) == 0 {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO factor_panels (
			dataset, period, instrument, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if err := batch.Append(dataset, r.Period, r.Instrument, r.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetPanel retrieves a full panel. Returns ErrNotFound if the dataset
// does not exist.
func (s *PanelStore) GetPanel(ctx context.Context, dataset string) (*domain.Panel, error) {
	query := `
		SELECT period, instrument, value
		FROM factor_panels
		WHERE dataset = ?
		ORDER BY period ASC, instrument ASC
	`

	started := time.Now()
	rows, err := s.conn.Query(ctx, query, dataset)
	observability.RecordDBQuery("clickhouse", "get_panel", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query panel: %w", err)
	}
	defer rows.Close()

	return scanPanel(rows)
}

// GetPanelRange retrieves the panel restricted to periods within
// [start, end] (inclusive).
func (s *PanelStore) GetPanelRange(ctx context.Context, dataset string, start, end time.Time) (*domain.Panel, error) {
	query := `
		SELECT period, instrument, value
		FROM factor_panels
		WHERE dataset = ? AND period >= ? AND period <= ?
		ORDER BY period ASC, instrument ASC
	`

	started := time.Now()
	rows, err := s.conn.Query(ctx, query, dataset, start, end)
	observability.RecordDBQuery("clickhouse", "get_panel_range", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query panel range: %w", err)
	}
	defer rows.Close()

	return scanPanel(rows)
}

// ListDatasets returns all stored dataset names, sorted.
func (s *PanelStore) ListDatasets(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT dataset
		FROM factor_panels
		ORDER BY dataset ASC
	`

	started := time.Now()
	rows, err := s.conn.Query(ctx, query)
	observability.RecordDBQuery("clickhouse", "list_datasets", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset rows: %w", err)
	}

	return names, nil
}

// exists checks if any rows for the dataset exist.
func (s *PanelStore) exists(ctx context.Context, dataset string) (bool, error) {
	query := `
		SELECT count(*) FROM factor_panels
		WHERE dataset = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, dataset).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPanel reassembles a wide panel from long rows.
func scanPanel(rows chRows) (*domain.Panel, error) {
	var records []domain.Record

	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.Period, &r.Instrument, &r.Value); err != nil {
			return nil, fmt.Errorf("scan panel row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate panel rows: %w", err)
	}

	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}

	p, err := domain.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("assemble panel: %w", err)
	}
	return p, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}
