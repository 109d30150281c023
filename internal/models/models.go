package models

// DateLayout is the canonical calendar-date form used everywhere in the
// pipeline. Dates are kept as strings on purpose: lexicographic order on
// YYYY-MM-DD equals chronological order, and the SQL layer already returns
// dates in this shape.
const DateLayout = "2006-01-02"

type SourceKind string

const (
	SourceAds      SourceKind = "ads"
	SourceBusiness SourceKind = "business"
)

type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

// RawRow is one record as it comes off the SQL layer, before normalization.
// Values may be strings, []byte, numbers, time.Time or nil depending on the
// driver and column type; the normalizer sorts that out.
type RawRow map[string]any

// MetricRow is the common per-day record both sources normalize into.
// Business counters (Sessions, PageViews, UnitsOrdered, TotalSales) are only
// trusted on rows whose BusinessCarrier flag is set; MergeSources marks
// exactly one carrier per date so the repeated business figures attached to
// every ad row of a day are counted once.
type MetricRow struct {
	Date         string  `json:"date"`
	EntityKey    string  `json:"entity_key"`
	Campaign     string  `json:"campaign,omitempty"`
	SearchTerm   string  `json:"search_term,omitempty"`
	Keyword      string  `json:"keyword,omitempty"`
	ASIN         string  `json:"asin,omitempty"`
	SKU          string  `json:"sku,omitempty"`
	Spend        float64 `json:"spend"`
	Sales        float64 `json:"sales"`
	TotalSales   float64 `json:"total_sales"`
	Clicks       uint64  `json:"clicks"`
	Impressions  uint64  `json:"impressions"`
	Purchases    uint64  `json:"purchases"`
	Sessions     uint64  `json:"sessions"`
	PageViews    uint64  `json:"page_views"`
	UnitsOrdered uint64  `json:"units_ordered"`

	BusinessCarrier bool `json:"-"`
}

// Bucket is a contiguous time window; Start and End are inclusive dates.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether date falls inside the bucket.
func (b Bucket) Contains(date string) bool {
	return date >= b.Start && date <= b.End
}

// Sums are the raw additive counters accumulated per (bucket, entity).
type Sums struct {
	Spend        float64 `json:"spend"`
	Sales        float64 `json:"sales"`
	TotalSales   float64 `json:"total_sales"`
	Clicks       uint64  `json:"clicks"`
	Impressions  uint64  `json:"impressions"`
	Purchases    uint64  `json:"purchases"`
	Sessions     uint64  `json:"sessions"`
	PageViews    uint64  `json:"page_views"`
	UnitsOrdered uint64  `json:"units_ordered"`
}

type AggregatedBucket struct {
	BucketKey string `json:"bucket_key"`
	Label     string `json:"label"`
	EntityKey string `json:"entity_key"`
	Days      int    `json:"days"`
	Sums      Sums   `json:"sums"`

	// Dates are the distinct dates behind Days, sorted. Carried so rollups
	// across entities can union them; two campaigns active on the same day
	// are one day, not two.
	Dates []string `json:"-"`
}

// KPISet holds the derived ratio metrics. Always recomputed from Sums,
// never stored; every zero denominator yields exactly 0.
type KPISet struct {
	Acos              float64 `json:"acos"`
	Roas              float64 `json:"roas"`
	Cpc               float64 `json:"cpc"`
	Ctr               float64 `json:"ctr"`
	Tacos             float64 `json:"tacos"`
	ConversionRate    float64 `json:"conversion_rate"`
	AvgCpc            float64 `json:"avg_cpc"`
	AvgSessionsPerDay float64 `json:"avg_sessions_per_day"`
}

// BucketMetrics pairs the raw sums of one bucket with its derived KPIs.
type BucketMetrics struct {
	Sums Sums   `json:"sums"`
	KPIs KPISet `json:"kpis"`
}

// Delta is B minus A, with the percentage change relative to |A|.
type Delta struct {
	Abs float64 `json:"abs"`
	Pct float64 `json:"pct"`
}

// DayComparison aligns the Nth bucket of range A against the Nth bucket of
// range B. DateA/DateB are empty when the position is past the end of that
// range (the shorter side compares as an all-zero bucket).
type DayComparison struct {
	Index  int              `json:"index"`
	DateA  string           `json:"date_a"`
	DateB  string           `json:"date_b"`
	A      BucketMetrics    `json:"a"`
	B      BucketMetrics    `json:"b"`
	Deltas map[string]Delta `json:"deltas"`
}

// KPIDelta is one aggregate-level comparison card.
type KPIDelta struct {
	Key      string  `json:"key"`
	A        float64 `json:"a"`
	B        float64 `json:"b"`
	Delta    float64 `json:"delta"`
	DeltaPct float64 `json:"delta_pct"`
}

// ChartSeries is the chart-ready view: labels plus per-metric value arrays
// aligned by index, zero-filled for buckets with no data.
type ChartSeries struct {
	Labels []string             `json:"labels"`
	Series map[string][]float64 `json:"series"`
}
