package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adsight/adsight/internal/models"
	"github.com/adsight/adsight/internal/pipeline"
	"github.com/adsight/adsight/internal/utils"
)

// ErrBadParam marks malformed query parameters; handlers map it (and the
// pipeline's range/kind errors) to 400.
var ErrBadParam = errors.New("bad request parameter")

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// RowSource is the SQL layer contract: raw ad-report and sales-traffic rows
// for an inclusive date range.
type RowSource interface {
	AdRows(ctx context.Context, start, end string) ([]models.RawRow, error)
	BusinessRows(ctx context.Context, start, end string) ([]models.RawRow, error)
}

// Service runs the pipeline per request. It holds no per-request state, so
// concurrent requests are independent; the only shared resource is the
// source's connection pool.
type Service struct {
	src RowSource
	log *slog.Logger
	now func() time.Time
}

func New(src RowSource, log *slog.Logger) *Service {
	return &Service{src: src, log: log, now: time.Now}
}

type AnalyticsResult struct {
	Rows  []models.MetricRow `json:"rows"`
	Total int                `json:"total"`
	KPIs  models.KPISet      `json:"kpis"`
	Sums  models.Sums        `json:"sums"`
}

// Analytics returns the merged per-day rows for a range plus whole-account
// KPIs, the shape the KPI cards and the main table consume.
func (s *Service) Analytics(ctx context.Context, v url.Values) (AnalyticsResult, error) {
	start, end, err := rangeParams(v)
	if err != nil {
		return AnalyticsResult{}, err
	}
	rows, err := s.mergedRows(ctx, start, end)
	if err != nil {
		return AnalyticsResult{}, err
	}
	buckets, err := pipeline.BuildBuckets(start, end, models.Daily, s.now())
	if err != nil {
		return AnalyticsResult{}, err
	}
	aggs := pipeline.Aggregate(rows, buckets, pipeline.AccountKey)
	sums, days := totals(aggs)

	total := len(rows)
	limit := atoiDef(v.Get("limit"), defaultLimit)
	offset := atoiDef(v.Get("offset"), 0)
	limit, offset = clampLimitOffset(limit, offset, total)
	return AnalyticsResult{
		Rows:  paginate(rows, limit, offset),
		Total: total,
		KPIs:  pipeline.DeriveKPIs(sums, days),
		Sums:  sums,
	}, nil
}

type BusinessResult struct {
	Rows []models.MetricRow `json:"rows"`
	Sums models.Sums        `json:"sums"`
	KPIs models.KPISet      `json:"kpis"`
}

func (s *Service) BusinessData(ctx context.Context, v url.Values) (BusinessResult, error) {
	start, end, err := rangeParams(v)
	if err != nil {
		return BusinessResult{}, err
	}
	rows, err := s.sourceRows(ctx, models.SourceBusiness, start, end)
	if err != nil {
		return BusinessResult{}, err
	}
	buckets, err := pipeline.BuildBuckets(start, end, models.Daily, s.now())
	if err != nil {
		return BusinessResult{}, err
	}
	sums, days := totals(pipeline.Aggregate(rows, buckets, pipeline.AccountKey))
	return BusinessResult{Rows: rows, Sums: sums, KPIs: pipeline.DeriveKPIs(sums, days)}, nil
}

type TrendsResult struct {
	Buckets []models.Bucket           `json:"buckets"`
	Rows    []models.AggregatedBucket `json:"rows"`
	KPIs    models.KPISet             `json:"kpis"`
	Series  models.ChartSeries        `json:"series"`
}

// Trends is the bucketed view: aggregates per (bucket, entity) plus a
// zero-filled chart series over the same buckets.
func (s *Service) Trends(ctx context.Context, v url.Values) (TrendsResult, error) {
	start, end, err := rangeParams(v)
	if err != nil {
		return TrendsResult{}, err
	}
	gran, err := granularityParam(v.Get("granularity"))
	if err != nil {
		return TrendsResult{}, err
	}
	keyFn, err := groupParam(v.Get("group"))
	if err != nil {
		return TrendsResult{}, err
	}
	rows, err := s.mergedRows(ctx, start, end)
	if err != nil {
		return TrendsResult{}, err
	}
	buckets, err := pipeline.BuildBuckets(start, end, gran, s.now())
	if err != nil {
		return TrendsResult{}, err
	}
	aggs := pipeline.Aggregate(rows, buckets, keyFn)
	sums, days := totals(aggs)
	return TrendsResult{
		Buckets: buckets,
		Rows:    aggs,
		KPIs:    pipeline.DeriveKPIs(sums, days),
		Series:  pipeline.BuildSeries(buckets, aggs, metricsParam(v.Get("metrics"))),
	}, nil
}

type CompareResult struct {
	Days      []models.DayComparison `json:"days"`
	KPIsA     models.KPISet          `json:"kpis_a"`
	KPIsB     models.KPISet          `json:"kpis_b"`
	KPIDeltas []models.KPIDelta      `json:"kpi_deltas"`
}

// Compare aligns two independently selected ranges position by position
// and reports per-day and aggregate-level deltas, B minus A.
func (s *Service) Compare(ctx context.Context, v url.Values) (CompareResult, error) {
	aggsA, kpisA, err := s.rangeAggregates(ctx, v.Get("startA"), v.Get("endA"))
	if err != nil {
		return CompareResult{}, fmt.Errorf("range A: %w", err)
	}
	aggsB, kpisB, err := s.rangeAggregates(ctx, v.Get("startB"), v.Get("endB"))
	if err != nil {
		return CompareResult{}, fmt.Errorf("range B: %w", err)
	}
	return CompareResult{
		Days:      pipeline.Compare(aggsA, aggsB),
		KPIsA:     kpisA,
		KPIsB:     kpisB,
		KPIDeltas: pipeline.CompareKPIs(kpisA, kpisB),
	}, nil
}

func (s *Service) rangeAggregates(ctx context.Context, start, end string) ([]models.AggregatedBucket, models.KPISet, error) {
	if err := validRange(start, end); err != nil {
		return nil, models.KPISet{}, err
	}
	rows, err := s.mergedRows(ctx, start, end)
	if err != nil {
		return nil, models.KPISet{}, err
	}
	buckets, err := pipeline.BuildBuckets(start, end, models.Daily, s.now())
	if err != nil {
		return nil, models.KPISet{}, err
	}
	aggs := pipeline.Aggregate(rows, buckets, pipeline.AccountKey)
	sums, days := totals(aggs)
	// Zero-fill so position N always means day N of the range.
	return pipeline.FillBuckets(buckets, aggs), pipeline.DeriveKPIs(sums, days), nil
}

func (s *Service) mergedRows(ctx context.Context, start, end string) ([]models.MetricRow, error) {
	ads, err := s.sourceRows(ctx, models.SourceAds, start, end)
	if err != nil {
		return nil, err
	}
	business, err := s.sourceRows(ctx, models.SourceBusiness, start, end)
	if err != nil {
		return nil, err
	}
	return pipeline.MergeSources(ads, business), nil
}

func (s *Service) sourceRows(ctx context.Context, kind models.SourceKind, start, end string) ([]models.MetricRow, error) {
	var raw []models.RawRow
	var err error
	if kind == models.SourceAds {
		raw, err = s.src.AdRows(ctx, start, end)
	} else {
		raw, err = s.src.BusinessRows(ctx, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s rows: %w", kind, err)
	}
	rows, err := pipeline.Normalize(raw, kind)
	if err != nil {
		return nil, err
	}
	utils.ObserveRows(string(kind), len(raw), len(rows))
	if dropped := len(raw) - len(rows); dropped > 0 {
		s.log.Debug("dropped unparseable rows",
			slog.String("source", string(kind)), slog.Int("dropped", dropped))
	}
	return rows, nil
}

// totals folds the aggregates into whole-range sums. days is the number of
// distinct dates across all entities, unioned rather than summed, so the
// range KPIs come out the same whichever grouping dimension built the
// aggregates.
func totals(aggs []models.AggregatedBucket) (models.Sums, int) {
	var sums models.Sums
	dates := map[string]struct{}{}
	for _, a := range aggs {
		sums.Spend += a.Sums.Spend
		sums.Sales += a.Sums.Sales
		sums.TotalSales += a.Sums.TotalSales
		sums.Clicks += a.Sums.Clicks
		sums.Impressions += a.Sums.Impressions
		sums.Purchases += a.Sums.Purchases
		sums.Sessions += a.Sums.Sessions
		sums.PageViews += a.Sums.PageViews
		sums.UnitsOrdered += a.Sums.UnitsOrdered
		for _, d := range a.Dates {
			dates[d] = struct{}{}
		}
	}
	return sums, len(dates)
}

func rangeParams(v url.Values) (string, string, error) {
	start, end := v.Get("start"), v.Get("end")
	if err := validRange(start, end); err != nil {
		return "", "", err
	}
	return start, end, nil
}

func validRange(start, end string) error {
	if _, err := time.Parse(models.DateLayout, start); err != nil {
		return fmt.Errorf("%w: start %q", ErrBadParam, start)
	}
	if _, err := time.Parse(models.DateLayout, end); err != nil {
		return fmt.Errorf("%w: end %q", ErrBadParam, end)
	}
	if start > end {
		return pipeline.ErrInvalidRange
	}
	return nil
}

func granularityParam(s string) (models.Granularity, error) {
	switch models.Granularity(s) {
	case "":
		return models.Daily, nil
	case models.Daily, models.Weekly, models.Monthly, models.Quarterly:
		return models.Granularity(s), nil
	}
	return "", fmt.Errorf("%w: granularity %q", ErrBadParam, s)
}

func groupParam(s string) (pipeline.EntityKeyFunc, error) {
	switch s {
	case "", "account":
		return pipeline.AccountKey, nil
	case "campaign":
		return pipeline.CampaignKey, nil
	case "search-term":
		return pipeline.SearchTermKey, nil
	case "product":
		return pipeline.ProductKey, nil
	}
	return nil, fmt.Errorf("%w: group %q", ErrBadParam, s)
}

func metricsParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	// Zero or negative limits fall back to the default rather than
	// meaning "everything".
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
