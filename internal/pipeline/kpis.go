package pipeline

import "github.com/adsight/adsight/internal/models"

// DeriveKPIs computes the ratio metrics from one bucket's sums. days is the
// number of distinct dates behind the sums and only feeds the
// sessions-per-day average. Every divide-by-zero case yields exactly 0;
// these values go straight to KPI cards, so NaN and Inf must never escape.
func DeriveKPIs(s models.Sums, days int) models.KPISet {
	k := models.KPISet{
		Acos:           round2(pct(s.Spend, s.Sales)),
		Roas:           round2(safeDiv(s.Sales, s.Spend)),
		Cpc:            round3(safeDiv(s.Spend, float64(s.Clicks))),
		Ctr:            round2(pct(float64(s.Clicks), float64(s.Impressions))),
		Tacos:          round2(pct(s.Spend, s.TotalSales)),
		ConversionRate: round2(pct(float64(s.UnitsOrdered), float64(s.Sessions))),
	}
	k.AvgCpc = k.Cpc
	if days > 0 {
		k.AvgSessionsPerDay = round2(float64(s.Sessions) / float64(days))
	}
	return k
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func pct(a, b float64) float64 { return safeDiv(a, b) * 100 }

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
func round3(f float64) float64 { return float64(int64(f*1000+0.5)) / 1000 }
