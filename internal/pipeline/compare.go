package pipeline

import (
	"math"

	"github.com/adsight/adsight/internal/models"
)

// CompareMetrics are the per-position metrics exposed by Compare, matching
// the comparison dashboard's cards.
var CompareMetrics = []string{
	"spend", "sales", "total_sales", "acos", "tacos", "roas",
	"clicks", "avg_cpc", "sessions", "page_views", "units_ordered",
	"conversion_rate",
}

// Compare aligns two aggregated series position by position: the Nth bucket
// of A against the Nth bucket of B, regardless of calendar dates. The
// shorter series pads with an implicit zero bucket. The delta sign
// convention is B minus A.
func Compare(a, b []models.AggregatedBucket) []models.DayComparison {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]models.DayComparison, 0, n)
	for i := 0; i < n; i++ {
		var dc models.DayComparison
		dc.Index = i
		if i < len(a) {
			dc.DateA = a[i].BucketKey
			dc.A = bucketMetrics(a[i])
		}
		if i < len(b) {
			dc.DateB = b[i].BucketKey
			dc.B = bucketMetrics(b[i])
		}
		dc.Deltas = make(map[string]models.Delta, len(CompareMetrics))
		for _, key := range CompareMetrics {
			va := MetricValue(dc.A, key)
			vb := MetricValue(dc.B, key)
			dc.Deltas[key] = models.Delta{Abs: vb - va, Pct: deltaPct(va, vb)}
		}
		out = append(out, dc)
	}
	return out
}

// CompareKPIs builds the aggregate-level comparison cards for two whole
// ranges.
func CompareKPIs(a, b models.KPISet) []models.KPIDelta {
	pairs := []struct {
		key  string
		a, b float64
	}{
		{"acos", a.Acos, b.Acos},
		{"roas", a.Roas, b.Roas},
		{"cpc", a.Cpc, b.Cpc},
		{"ctr", a.Ctr, b.Ctr},
		{"tacos", a.Tacos, b.Tacos},
		{"conversion_rate", a.ConversionRate, b.ConversionRate},
		{"avg_cpc", a.AvgCpc, b.AvgCpc},
		{"avg_sessions_per_day", a.AvgSessionsPerDay, b.AvgSessionsPerDay},
	}
	out := make([]models.KPIDelta, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.KPIDelta{
			Key:      p.key,
			A:        p.a,
			B:        p.b,
			Delta:    p.b - p.a,
			DeltaPct: deltaPct(p.a, p.b),
		})
	}
	return out
}

// deltaPct is the percentage change of b relative to |a|. A zero baseline
// with a non-zero b reads as +100%, and zero against zero as 0.
func deltaPct(a, b float64) float64 {
	if a != 0 {
		return (b - a) / math.Abs(a) * 100
	}
	if b != 0 {
		return 100
	}
	return 0
}

func bucketMetrics(a models.AggregatedBucket) models.BucketMetrics {
	return models.BucketMetrics{Sums: a.Sums, KPIs: DeriveKPIs(a.Sums, a.Days)}
}

// MetricValue resolves a metric name against one bucket's sums and KPIs.
func MetricValue(m models.BucketMetrics, key string) float64 {
	switch key {
	case "spend":
		return m.Sums.Spend
	case "sales":
		return m.Sums.Sales
	case "total_sales":
		return m.Sums.TotalSales
	case "clicks":
		return float64(m.Sums.Clicks)
	case "impressions":
		return float64(m.Sums.Impressions)
	case "purchases":
		return float64(m.Sums.Purchases)
	case "sessions":
		return float64(m.Sums.Sessions)
	case "page_views":
		return float64(m.Sums.PageViews)
	case "units_ordered":
		return float64(m.Sums.UnitsOrdered)
	case "acos":
		return m.KPIs.Acos
	case "roas":
		return m.KPIs.Roas
	case "cpc":
		return m.KPIs.Cpc
	case "ctr":
		return m.KPIs.Ctr
	case "tacos":
		return m.KPIs.Tacos
	case "conversion_rate":
		return m.KPIs.ConversionRate
	case "avg_cpc":
		return m.KPIs.AvgCpc
	case "avg_sessions_per_day":
		return m.KPIs.AvgSessionsPerDay
	}
	return 0
}
