package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factor-eval-lab/internal/domain"
	"factor-eval-lab/internal/storage"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buildTestPanel(t *testing.T) *domain.Panel {
	t.Helper()
	p, err := domain.NewPanel(
		[]time.Time{day(0), day(1), day(2)},
		[]string{"000001", "000002", "600000"},
		[][]float64{
			{1.5, 2.5, 3.5},
			{1.6, domain.Missing, 3.6},
			{1.7, 2.7, domain.Missing},
		},
	)
	require.NoError(t, err)
	return p
}

func TestPanelStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPanelStore(conn)
	p := buildTestPanel(t)

	require.NoError(t, store.InsertPanel(ctx, "momentum", p))

	got, err := store.GetPanel(ctx, "momentum")
	require.NoError(t, err)

	// Missing cells are not stored but come back as missing
	assert.True(t, got.Equal(p), "retrieved panel differs from stored panel")
}

func TestPanelStore_DuplicateDataset(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPanelStore(conn)
	p := buildTestPanel(t)

	require.NoError(t, store.InsertPanel(ctx, "momentum", p))

	err := store.InsertPanel(ctx, "momentum", p)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPanelStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewPanelStore(conn).GetPanel(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPanelStore_GetPanelRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPanelStore(conn)
	require.NoError(t, store.InsertPanel(ctx, "momentum", buildTestPanel(t)))

	got, err := store.GetPanelRange(ctx, "momentum", day(1), day(2))
	require.NoError(t, err)
	require.Equal(t, 2, got.NumPeriods())
	assert.True(t, got.Period(0).Equal(day(1)))
	assert.InDelta(t, 1.6, got.At(0, 0), 1e-12)

	_, err = store.GetPanelRange(ctx, "momentum", day(10), day(20))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPanelStore_ListDatasets(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPanelStore(conn)
	p := buildTestPanel(t)
	for _, name := range []string{"value", "momentum", "beta"} {
		require.NoError(t, store.InsertPanel(ctx, name, p))
	}

	names, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "momentum", "value"}, names)
}

func TestPanelStore_InvalidInput(t *testing.T) {
	store := NewPanelStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.InsertPanel(ctx, "", buildTestPanel(t)), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.InsertPanel(ctx, "momentum", nil), storage.ErrInvalidInput)
}
