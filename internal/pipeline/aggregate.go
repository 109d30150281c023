package pipeline

import (
	"sort"

	"github.com/adsight/adsight/internal/models"
)

// EntityKeyFunc picks the grouping dimension for aggregation: a constant
// for whole-account totals, or an accessor for campaign, search-term or
// product views.
type EntityKeyFunc func(models.MetricRow) string

func AccountKey(models.MetricRow) string { return "account" }

func CampaignKey(r models.MetricRow) string { return orUnknown(r.Campaign) }

func SearchTermKey(r models.MetricRow) string { return orUnknown(r.SearchTerm) }

func ProductKey(r models.MetricRow) string {
	if r.ASIN != "" {
		return r.ASIN
	}
	return orUnknown(r.SKU)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Aggregate folds rows into per-(bucket, entity) sums. A row lands in the
// bucket containing its date; rows outside all buckets are dropped without
// error since the bucket set is a view window. Business counters are added
// only from carrier rows so repeated per-date business figures count once.
func Aggregate(rows []models.MetricRow, buckets []models.Bucket, keyFn EntityKeyFunc) []models.AggregatedBucket {
	if keyFn == nil {
		keyFn = AccountKey
	}
	type groupKey struct{ bucket, entity string }
	order := make(map[string]int, len(buckets))
	labels := make(map[string]string, len(buckets))
	for i, b := range buckets {
		order[b.Key] = i
		labels[b.Key] = b.Label
	}

	accs := make(map[groupKey]*models.Sums)
	dates := make(map[groupKey]map[string]struct{})
	for _, r := range rows {
		b, ok := bucketFor(buckets, r.Date)
		if !ok {
			continue
		}
		k := groupKey{bucket: b.Key, entity: keyFn(r)}
		s := accs[k]
		if s == nil {
			s = &models.Sums{}
			accs[k] = s
			dates[k] = make(map[string]struct{})
		}
		s.Spend += r.Spend
		s.Sales += r.Sales
		s.Clicks += r.Clicks
		s.Impressions += r.Impressions
		s.Purchases += r.Purchases
		if r.BusinessCarrier {
			s.TotalSales += r.TotalSales
			s.Sessions += r.Sessions
			s.PageViews += r.PageViews
			s.UnitsOrdered += r.UnitsOrdered
		}
		dates[k][r.Date] = struct{}{}
	}

	out := make([]models.AggregatedBucket, 0, len(accs))
	for k, s := range accs {
		ds := make([]string, 0, len(dates[k]))
		for d := range dates[k] {
			ds = append(ds, d)
		}
		sort.Strings(ds)
		out = append(out, models.AggregatedBucket{
			BucketKey: k.bucket,
			Label:     labels[k.bucket],
			EntityKey: k.entity,
			Days:      len(ds),
			Sums:      *s,
			Dates:     ds,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BucketKey != out[j].BucketKey {
			return order[out[i].BucketKey] < order[out[j].BucketKey]
		}
		return out[i].EntityKey < out[j].EntityKey
	})
	return out
}

// FillBuckets collapses aggregates to one account-level record per bucket
// and synthesizes zero-filled records for buckets the aggregator omitted.
// Positional views (day N of range A against day N of range B) and charts
// need the complete series, not just the days that had data.
func FillBuckets(buckets []models.Bucket, aggs []models.AggregatedBucket) []models.AggregatedBucket {
	sums := make(map[string]*models.Sums, len(buckets))
	dates := make(map[string]map[string]struct{}, len(buckets))
	for _, a := range aggs {
		s := sums[a.BucketKey]
		if s == nil {
			s = &models.Sums{}
			sums[a.BucketKey] = s
			dates[a.BucketKey] = make(map[string]struct{}, len(a.Dates))
		}
		s.Spend += a.Sums.Spend
		s.Sales += a.Sums.Sales
		s.TotalSales += a.Sums.TotalSales
		s.Clicks += a.Sums.Clicks
		s.Impressions += a.Sums.Impressions
		s.Purchases += a.Sums.Purchases
		s.Sessions += a.Sums.Sessions
		s.PageViews += a.Sums.PageViews
		s.UnitsOrdered += a.Sums.UnitsOrdered
		// Union, not max: entities active on different dates of one bucket
		// each contribute their dates once.
		for _, d := range a.Dates {
			dates[a.BucketKey][d] = struct{}{}
		}
	}
	out := make([]models.AggregatedBucket, 0, len(buckets))
	for _, b := range buckets {
		agg := models.AggregatedBucket{
			BucketKey: b.Key,
			Label:     b.Label,
			EntityKey: "account",
		}
		if s := sums[b.Key]; s != nil {
			agg.Sums = *s
			ds := make([]string, 0, len(dates[b.Key]))
			for d := range dates[b.Key] {
				ds = append(ds, d)
			}
			sort.Strings(ds)
			agg.Days = len(ds)
			agg.Dates = ds
		}
		out = append(out, agg)
	}
	return out
}

// bucketFor finds the bucket containing date. Buckets are sorted ascending
// and non-overlapping, so binary search on Start is enough.
func bucketFor(buckets []models.Bucket, date string) (models.Bucket, bool) {
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i].Start > date })
	if i == 0 {
		return models.Bucket{}, false
	}
	b := buckets[i-1]
	if !b.Contains(date) {
		return models.Bucket{}, false
	}
	return b, true
}

// MergeSources joins ad rows with per-date business totals the way the
// dashboards show them: business rows are summed per date, and that total
// rides on exactly one carrier ad row for the date. Dates that have
// business traffic but no ad activity become standalone carrier rows so
// organic sales still count toward totals.
func MergeSources(ads, business []models.MetricRow) []models.MetricRow {
	type bizTotals struct {
		totalSales   float64
		sessions     uint64
		pageViews    uint64
		unitsOrdered uint64
	}
	biz := make(map[string]*bizTotals)
	for _, r := range business {
		t := biz[r.Date]
		if t == nil {
			t = &bizTotals{}
			biz[r.Date] = t
		}
		t.totalSales += r.TotalSales
		t.sessions += r.Sessions
		t.pageViews += r.PageViews
		t.unitsOrdered += r.UnitsOrdered
	}

	out := make([]models.MetricRow, len(ads), len(ads)+len(biz))
	copy(out, ads)
	carried := make(map[string]bool, len(biz))
	for i := range out {
		r := &out[i]
		r.BusinessCarrier = false
		r.TotalSales, r.Sessions, r.PageViews, r.UnitsOrdered = 0, 0, 0, 0
		t := biz[r.Date]
		if t == nil || carried[r.Date] {
			continue
		}
		carried[r.Date] = true
		r.BusinessCarrier = true
		r.TotalSales = t.totalSales
		r.Sessions = t.sessions
		r.PageViews = t.pageViews
		r.UnitsOrdered = t.unitsOrdered
	}
	for date, t := range biz {
		if carried[date] {
			continue
		}
		out = append(out, models.MetricRow{
			Date:            date,
			EntityKey:       "organic",
			TotalSales:      t.totalSales,
			Sessions:        t.sessions,
			PageViews:       t.pageViews,
			UnitsOrdered:    t.unitsOrdered,
			BusinessCarrier: true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
