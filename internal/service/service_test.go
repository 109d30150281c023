package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsight/adsight/internal/models"
	"github.com/adsight/adsight/internal/pipeline"
	"github.com/adsight/adsight/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := New(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, mem
}

func seedFixture(mem *store.Memory) {
	mem.SeedAds(
		models.RawRow{"report_date": "2024-01-01", "campaign_name": "brand", "cost": 100.0, "sales_1d": 200.0, "clicks": int64(50), "impressions": int64(1000), "purchases_1d": int64(5)},
		models.RawRow{"report_date": "2024-01-02", "campaign_name": "brand", "cost": 50.0, "sales_1d": 100.0, "clicks": int64(25), "impressions": int64(500), "purchases_1d": int64(2)},
		models.RawRow{"report_date": "2024-01-02", "campaign_name": "generic", "cost": 10.0, "sales_1d": 0.0, "clicks": int64(4), "impressions": int64(80), "purchases_1d": int64(0)},
	)
	mem.SeedBusiness(
		models.RawRow{"date": "2024-01-01", "parent_asin": "B0TEST", "ordered_product_sales": 400.0, "sessions": int64(200), "page_views": int64(600), "units_ordered": int64(10)},
		models.RawRow{"date": "2024-01-02", "parent_asin": "B0TEST", "ordered_product_sales": 100.0, "sessions": int64(80), "page_views": int64(200), "units_ordered": int64(4)},
	)
}

func query(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func TestAnalyticsWholeAccount(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Analytics(context.Background(), query("start", "2024-01-01", "end", "2024-01-02"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, 160.0, res.Sums.Spend)
	assert.Equal(t, 300.0, res.Sums.Sales)
	assert.Equal(t, 500.0, res.Sums.TotalSales, "business sales counted once per date")
	assert.Equal(t, uint64(280), res.Sums.Sessions)

	// 160/300*100 and 160/500*100.
	assert.InDelta(t, 53.33, res.KPIs.Acos, 0.001)
	assert.InDelta(t, 32.0, res.KPIs.Tacos, 0.001)
	assert.InDelta(t, 140.0, res.KPIs.AvgSessionsPerDay, 0.001)
}

func TestAnalyticsPaginates(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Analytics(context.Background(),
		query("start", "2024-01-01", "end", "2024-01-02", "limit", "2", "offset", "1"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Rows, 2)
}

func TestClampLimitOffset(t *testing.T) {
	limit, offset := clampLimitOffset(-5, 0, 5000)
	assert.Equal(t, defaultLimit, limit, "negative limit falls back to the default")
	assert.Zero(t, offset)

	limit, _ = clampLimitOffset(0, 0, 5000)
	assert.Equal(t, defaultLimit, limit)

	limit, _ = clampLimitOffset(4000, 0, 5000)
	assert.Equal(t, maxLimit, limit)

	_, offset = clampLimitOffset(10, -3, 100)
	assert.Zero(t, offset)

	_, offset = clampLimitOffset(10, 250, 100)
	assert.Equal(t, 100, offset)
}

func TestAnalyticsEmptyRangeIsAllZero(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Analytics(context.Background(), query("start", "2024-03-01", "end", "2024-03-05"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.Sums.Spend)
	assert.Zero(t, res.KPIs.Acos)
	assert.Zero(t, res.KPIs.Roas)
}

func TestBusinessData(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.BusinessData(context.Background(), query("start", "2024-01-01", "end", "2024-01-02"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 500.0, res.Sums.TotalSales)
	assert.Equal(t, uint64(280), res.Sums.Sessions)
	assert.InDelta(t, 5.0, res.KPIs.ConversionRate, 0.001)
}

func TestTrendsGroupsByCampaign(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Trends(context.Background(),
		query("start", "2024-01-01", "end", "2024-01-02", "group", "campaign"))
	require.NoError(t, err)

	require.Len(t, res.Buckets, 2)
	// Day 1: brand alone carries the business totals. Day 2: brand and
	// generic, plus the organic row for the business-only attribution.
	entities := map[string]bool{}
	for _, r := range res.Rows {
		entities[r.EntityKey] = true
	}
	assert.True(t, entities["brand"])
	assert.True(t, entities["generic"])

	require.Len(t, res.Series.Labels, 2)
	assert.Equal(t, []string{"Jan 1", "Jan 2"}, res.Series.Labels)
	assert.Equal(t, []float64{100, 60}, res.Series.Series["spend"])
}

func TestTrendsKPIsIndependentOfGrouping(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	byAccount, err := svc.Trends(context.Background(),
		query("start", "2024-01-01", "end", "2024-01-02", "group", "account"))
	require.NoError(t, err)
	byCampaign, err := svc.Trends(context.Background(),
		query("start", "2024-01-01", "end", "2024-01-02", "group", "campaign"))
	require.NoError(t, err)

	// The grouping dimension slices the rows, it must not change the
	// whole-range KPIs: 280 sessions over 2 distinct days is 140 per day
	// no matter how many entities were active.
	assert.Equal(t, 140.0, byAccount.KPIs.AvgSessionsPerDay)
	assert.Equal(t, byAccount.KPIs, byCampaign.KPIs)
}

func TestTrendsWeeklyGranularity(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Trends(context.Background(),
		query("start", "2024-01-01", "end", "2024-01-14", "granularity", "weekly", "metrics", "spend"))
	require.NoError(t, err)
	require.Len(t, res.Buckets, 2)
	assert.Equal(t, "2024-01-01", res.Buckets[0].Key)
	assert.Equal(t, []float64{160, 0}, res.Series.Series["spend"])
}

func TestCompareAlignsPositions(t *testing.T) {
	svc, mem := newTestService(t)
	seedFixture(mem)

	res, err := svc.Compare(context.Background(), query(
		"startA", "2024-01-01", "endA", "2024-01-02",
		"startB", "2024-01-03", "endB", "2024-01-05",
	))
	require.NoError(t, err)

	// Range B is longer, so it sets the day count; range B has no data at
	// all, so every delta is a drop against range A.
	require.Len(t, res.Days, 3)
	assert.Equal(t, "2024-01-01", res.Days[0].DateA)
	assert.Equal(t, "2024-01-03", res.Days[0].DateB)
	assert.Equal(t, -100.0, res.Days[0].Deltas["spend"].Abs)
	assert.Equal(t, -100.0, res.Days[0].Deltas["spend"].Pct)
	assert.Empty(t, res.Days[2].DateA, "position past range A has no date")

	require.NotEmpty(t, res.KPIDeltas)
	assert.InDelta(t, 53.33, res.KPIsA.Acos, 0.001)
	assert.Zero(t, res.KPIsB.Acos)
}

func TestCompareWrapsRangeErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Compare(context.Background(), query(
		"startA", "2024-01-01", "endA", "2024-01-02",
		"startB", "2024-01-09", "endB", "2024-01-03",
	))
	require.ErrorIs(t, err, pipeline.ErrInvalidRange)
	assert.Contains(t, err.Error(), "range B")
}

func TestBadParams(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Analytics(ctx, query("start", "01/02/2024", "end", "2024-01-05"))
	assert.ErrorIs(t, err, ErrBadParam)

	_, err = svc.Analytics(ctx, query("start", "2024-01-05", "end", "2024-01-01"))
	assert.ErrorIs(t, err, pipeline.ErrInvalidRange)

	_, err = svc.Trends(ctx, query("start", "2024-01-01", "end", "2024-01-02", "granularity", "hourly"))
	assert.ErrorIs(t, err, ErrBadParam)

	_, err = svc.Trends(ctx, query("start", "2024-01-01", "end", "2024-01-02", "group", "region"))
	assert.ErrorIs(t, err, ErrBadParam)
}
