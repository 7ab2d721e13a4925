package storage

import (
	"context"
	"time"

	"factor-eval-lab/internal/domain"
)

// PanelStore provides access to stored wide panels, keyed by dataset
// name. The analytical database holds panels in long form; stores
// reassemble the canonical wide representation on read.
type PanelStore interface {
	// InsertPanel stores a panel under a dataset name. Returns
	// ErrDuplicateKey if the dataset already exists; panels are
	// append-only, re-ingest under a new name.
	InsertPanel(ctx context.Context, dataset string, p *domain.Panel) error

	// GetPanel retrieves a full panel. Returns ErrNotFound if the
	// dataset does not exist.
	GetPanel(ctx context.Context, dataset string) (*domain.Panel, error)

	// GetPanelRange retrieves the panel restricted to periods within
	// [start, end] (inclusive). Returns ErrNotFound when no period of
	// the dataset falls in the range.
	GetPanelRange(ctx context.Context, dataset string, start, end time.Time) (*domain.Panel, error)

	// ListDatasets returns all stored dataset names, sorted.
	ListDatasets(ctx context.Context) ([]string, error)
}

// ResultStore provides access to evaluation_results storage. Stores
// persist the tabular summary of a result (scalar statistics, bucket
// returns, run metadata); the time-series fields stay with the caller
// and are exported separately by the reporting layer.
type ResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if a result for
	// (factor_name, evaluated_at) exists.
	Insert(ctx context.Context, r *domain.EvaluationResult) error

	// GetByFactor retrieves all results for a factor, ordered by
	// evaluated_at ASC.
	GetByFactor(ctx context.Context, factorName string) ([]*domain.EvaluationResult, error)

	// GetAll retrieves all results, ordered by evaluated_at ASC.
	GetAll(ctx context.Context) ([]*domain.EvaluationResult, error)
}
