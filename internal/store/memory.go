package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/adsight/adsight/internal/models"
)

// Memory serves raw rows from process memory. It backs tests and the
// no-database demo mode; date filtering matches what the SQL queries do.
type Memory struct {
	mu       sync.RWMutex
	ads      []models.RawRow
	business []models.RawRow
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) SeedAds(rows ...models.RawRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ads = append(m.ads, rows...)
}

func (m *Memory) SeedBusiness(rows ...models.RawRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.business = append(m.business, rows...)
}

func (m *Memory) AdRows(_ context.Context, start, end string) ([]models.RawRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterByDate(m.ads, start, end, "report_date", "date"), nil
}

func (m *Memory) BusinessRows(_ context.Context, start, end string) ([]models.RawRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterByDate(m.business, start, end, "date"), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func filterByDate(rows []models.RawRow, start, end string, keys ...string) []models.RawRow {
	out := []models.RawRow{}
	for _, r := range rows {
		d := rowDate(r, keys...)
		if d == "" || d < start || d > end {
			continue
		}
		out = append(out, r)
	}
	return out
}

// rowDate extracts a YYYY-MM-DD prefix without the normalizer's full
// coercion; unseedable dates just fall outside every range.
func rowDate(r models.RawRow, keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case time.Time:
			return v.Format(models.DateLayout)
		case string:
			if len(v) >= 10 && strings.Count(v[:10], "-") == 2 {
				return v[:10]
			}
		case []byte:
			s := string(v)
			if len(s) >= 10 && strings.Count(s[:10], "-") == 2 {
				return s[:10]
			}
		}
	}
	return ""
}
