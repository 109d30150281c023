package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresFromDB(sqlx.NewDb(db, "postgres"), "Asia/Kolkata", log), mock
}

func TestAdRows(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery("SELECT report_date, cost").
		WithArgs("2024-01-01", "2024-01-31").
		WillReturnRows(sqlmock.NewRows([]string{
			"report_date", "cost", "sales_1d", "clicks", "impressions",
			"purchases_1d", "search_term", "campaign_name", "keyword_info",
		}).AddRow(
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 12.5, 30.0, int64(7), int64(900),
			int64(2), "bottle", "Brand - Exact", "bottle exact",
		))

	rows, err := pg.AdRows(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Brand - Exact", rows[0]["campaign_name"])
	assert.Equal(t, 12.5, rows[0]["cost"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessRowsPassesTimezone(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery("FROM amazon_sales_traffic").
		WithArgs("2024-01-01", "2024-01-31", "Asia/Kolkata").
		WillReturnRows(sqlmock.NewRows([]string{
			"date", "sessions", "page_views", "units_ordered",
			"ordered_product_sales", "parent_asin", "sku",
		}).AddRow(
			"2024-01-05", int64(120), int64(340), int64(6), 899.0, "B00TEST123", "SKU-1",
		))

	rows, err := pg.BusinessRows(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(120), rows[0]["sessions"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdRowsQueryError(t *testing.T) {
	pg, mock := newMockStore(t)
	mock.ExpectQuery("SELECT report_date").WillReturnError(assert.AnError)

	_, err := pg.AdRows(context.Background(), "2024-01-01", "2024-01-31")
	assert.Error(t, err)
}

func TestMemoryStoreFiltersByRange(t *testing.T) {
	m := NewMemory()
	m.SeedAds(
		map[string]any{"report_date": "2024-01-01", "cost": 1.0},
		map[string]any{"report_date": "2024-01-15", "cost": 2.0},
		map[string]any{"report_date": "2024-02-01", "cost": 3.0},
	)
	m.SeedBusiness(
		map[string]any{"date": time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "sessions": 5},
	)

	ads, err := m.AdRows(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, ads, 2)

	biz, err := m.BusinessRows(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, biz, 1)

	none, err := m.AdRows(context.Background(), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Empty(t, none)
}
