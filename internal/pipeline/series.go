package pipeline

import "github.com/adsight/adsight/internal/models"

// DefaultSeriesMetrics are the lines the trend chart draws when the caller
// does not pick its own set.
var DefaultSeriesMetrics = []string{"spend", "sales", "total_sales", "acos", "tacos"}

// BuildSeries flattens aggregates into chart-ready arrays: one label per
// bucket and, for each metric, a value array aligned by index. Buckets the
// aggregator omitted come back zero-filled, so a chart always gets a
// complete series; aggregates for several entities in one bucket are summed
// before KPIs are derived.
func BuildSeries(buckets []models.Bucket, aggs []models.AggregatedBucket, metrics []string) models.ChartSeries {
	if len(metrics) == 0 {
		metrics = DefaultSeriesMetrics
	}
	cs := models.ChartSeries{
		Labels: make([]string, 0, len(buckets)),
		Series: make(map[string][]float64, len(metrics)),
	}
	for _, m := range metrics {
		cs.Series[m] = make([]float64, 0, len(buckets))
	}
	for _, a := range FillBuckets(buckets, aggs) {
		cs.Labels = append(cs.Labels, a.Label)
		bm := models.BucketMetrics{Sums: a.Sums, KPIs: DeriveKPIs(a.Sums, a.Days)}
		for _, m := range metrics {
			cs.Series[m] = append(cs.Series[m], MetricValue(bm, m))
		}
	}
	return cs
}
