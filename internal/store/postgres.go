package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/adsight/adsight/internal/models"
	"github.com/adsight/adsight/internal/utils"
)

// Queries mirror the reporting tables the ingestion jobs fill:
// amazon_ads_reports holds one row per (day, search term, campaign) and
// amazon_sales_traffic one row per (day, ASIN). Traffic timestamps are
// stored in UTC and shifted to the account's marketplace timezone before
// taking the calendar date.
const (
	adRowsQuery = `SELECT report_date, cost, sales_1d, clicks, impressions,
		purchases_1d, search_term, campaign_name, keyword_info
	FROM amazon_ads_reports
	WHERE report_date >= $1::date AND report_date <= $2::date
	ORDER BY report_date`

	businessRowsQuery = `SELECT (date AT TIME ZONE $3)::date AS date, sessions,
		page_views, units_ordered, ordered_product_sales, parent_asin, sku
	FROM amazon_sales_traffic
	WHERE (date AT TIME ZONE $3)::date >= $1::date
	  AND (date AT TIME ZONE $3)::date <= $2::date
	ORDER BY date`
)

type PostgresConfig struct {
	DSN             string
	Timezone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres reads raw report rows for the pipeline. It returns untyped
// RawRows on purpose: the normalizer owns all coercion, the store only
// moves data.
type Postgres struct {
	db  *sqlx.DB
	tz  string
	log *slog.Logger
}

func NewPostgres(cfg PostgresConfig, log *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	// The database is often still starting alongside us.
	if err := utils.NewBackoff(200*time.Millisecond, 3).Do(func(int) error {
		return db.Ping()
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db, tz: timezoneOr(cfg.Timezone), log: log}, nil
}

// NewPostgresFromDB wraps an existing connection, used by tests with sqlmock.
func NewPostgresFromDB(db *sqlx.DB, timezone string, log *slog.Logger) *Postgres {
	return &Postgres{db: db, tz: timezoneOr(timezone), log: log}
}

func timezoneOr(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

func (p *Postgres) AdRows(ctx context.Context, start, end string) ([]models.RawRow, error) {
	return p.mapRows(ctx, adRowsQuery, start, end)
}

func (p *Postgres) BusinessRows(ctx context.Context, start, end string) ([]models.RawRow, error) {
	return p.mapRows(ctx, businessRowsQuery, start, end, p.tz)
}

func (p *Postgres) mapRows(ctx context.Context, query string, args ...any) ([]models.RawRow, error) {
	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []models.RawRow{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, models.RawRow(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
