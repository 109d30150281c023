package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adsight/adsight/internal/models"
)

var (
	// ErrInvalidRange means the caller asked for a range whose start is
	// after its end. Caller bug, fails loudly.
	ErrInvalidRange = errors.New("invalid range: start after end")
	// ErrInvalidSourceKind means the normalizer was handed a source it
	// does not recognize.
	ErrInvalidSourceKind = errors.New("invalid source kind")
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Normalize turns raw SQL rows into MetricRows. Rows whose date cannot be
// parsed are dropped; numeric fields that cannot be parsed are zeroed. Both
// are recovered silently since ad and traffic exports routinely contain
// partial rows.
func Normalize(raw []models.RawRow, kind models.SourceKind) ([]models.MetricRow, error) {
	switch kind {
	case models.SourceAds, models.SourceBusiness:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceKind, kind)
	}
	out := make([]models.MetricRow, 0, len(raw))
	for _, r := range raw {
		var m models.MetricRow
		var ok bool
		if kind == models.SourceAds {
			m, ok = normalizeAd(r)
		} else {
			m, ok = normalizeBusiness(r)
		}
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func normalizeAd(r models.RawRow) (models.MetricRow, bool) {
	date, ok := dateField(r, "report_date", "date")
	if !ok {
		return models.MetricRow{}, false
	}
	campaign := stringField(r, "campaign_name")
	return models.MetricRow{
		Date:        date,
		EntityKey:   campaign,
		Campaign:    campaign,
		SearchTerm:  stringField(r, "search_term"),
		Keyword:     stringField(r, "keyword_info"),
		Spend:       floatField(r, "cost", "spend"),
		Sales:       floatField(r, "sales_1d", "sales"),
		Clicks:      uintField(r, "clicks"),
		Impressions: uintField(r, "impressions"),
		Purchases:   uintField(r, "purchases_1d", "purchases"),
	}, true
}

func normalizeBusiness(r models.RawRow) (models.MetricRow, bool) {
	date, ok := dateField(r, "date")
	if !ok {
		return models.MetricRow{}, false
	}
	asin := stringField(r, "parent_asin")
	return models.MetricRow{
		Date:         date,
		EntityKey:    asin,
		ASIN:         asin,
		SKU:          stringField(r, "sku"),
		TotalSales:   floatField(r, "ordered_product_sales", "total_sales"),
		Sessions:     uintField(r, "sessions"),
		PageViews:    uintField(r, "page_views", "pageviews"),
		UnitsOrdered: uintField(r, "units_ordered"),
		// A standalone business row carries its own counters.
		BusinessCarrier: true,
	}, true
}

// dateField resolves the first present key to a canonical YYYY-MM-DD date.
// Fallback order: raw ISO prefix match, then permissive time parsing.
func dateField(r models.RawRow, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if t, ok := v.(time.Time); ok {
			return t.Format(models.DateLayout), true
		}
		s := strings.TrimSpace(rawString(v))
		if s == "" {
			continue
		}
		if isoDatePrefix.MatchString(s) {
			return s[:10], true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "01/02/2006", "Jan 2, 2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(models.DateLayout), true
			}
		}
	}
	return "", false
}

func stringField(r models.RawRow, keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			if s := strings.TrimSpace(rawString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func floatField(r models.RawRow, keys ...string) float64 {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := parseNumber(v); ok {
			if f < 0 {
				return 0
			}
			return f
		}
	}
	return 0
}

func uintField(r models.RawRow, keys ...string) uint64 {
	f := floatField(r, keys...)
	if f <= 0 {
		return 0
	}
	return uint64(f)
}

func rawString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case []byte:
		return parseNumericString(string(n))
	case string:
		return parseNumericString(n)
	}
	return 0, false
}

// parseNumericString accepts plain numbers plus locale-formatted values:
// thousands separators and a leading currency symbol are stripped, so
// "₹1,234.50" parses as 1234.50 instead of stopping at the comma.
func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$₹€£ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
