// Package dashboard models the table state that used to live in one big
// mutable controller object: an explicit value record plus pure reducers,
// one per user action. Nothing here mutates in place; every reducer returns
// a new State.
package dashboard

import (
	"sort"
	"strings"

	"github.com/adsight/adsight/internal/models"
	"github.com/adsight/adsight/internal/pipeline"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

type State struct {
	Rows      []models.AggregatedBucket
	Search    string
	SortKey   string
	SortDir   SortDirection
	Page      int
	PageSize  int
	Selection Selection
}

func NewState(rows []models.AggregatedBucket) State {
	return State{Rows: rows, Page: 1, PageSize: 25, SortDir: Asc}
}

func (s State) WithSearch(term string) State {
	s.Search = strings.TrimSpace(term)
	s.Page = 1
	return s
}

// WithSort toggles direction when the same column is picked twice,
// mirroring the table header behavior.
func (s State) WithSort(key string) State {
	if s.SortKey == key {
		if s.SortDir == Asc {
			s.SortDir = Desc
		} else {
			s.SortDir = Asc
		}
	} else {
		s.SortKey = key
		s.SortDir = Asc
	}
	return s
}

func (s State) WithPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

func (s State) WithFilter(sel Selection) State {
	s.Selection = sel
	s.Page = 1
	return s
}

// Visible applies filter, search, sort and pagination and returns the rows
// the current page shows.
func (s State) Visible() []models.AggregatedBucket {
	rows := make([]models.AggregatedBucket, 0, len(s.Rows))
	match := s.Selection.Predicate()
	needle := strings.ToLower(s.Search)
	for _, r := range s.Rows {
		if !match(r.EntityKey) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.EntityKey), needle) &&
			!strings.Contains(r.BucketKey, needle) {
			continue
		}
		rows = append(rows, r)
	}

	if s.SortKey != "" {
		dir := 1.0
		if s.SortDir == Desc {
			dir = -1
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if s.SortKey == "entity" {
				if s.SortDir == Desc {
					return rows[i].EntityKey > rows[j].EntityKey
				}
				return rows[i].EntityKey < rows[j].EntityKey
			}
			vi := pipeline.MetricValue(metricsOf(rows[i]), s.SortKey)
			vj := pipeline.MetricValue(metricsOf(rows[j]), s.SortKey)
			return vi*dir < vj*dir
		})
	}

	size := s.PageSize
	if size <= 0 {
		size = len(rows)
	}
	start := (s.Page - 1) * size
	if start >= len(rows) {
		return []models.AggregatedBucket{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func metricsOf(a models.AggregatedBucket) models.BucketMetrics {
	return models.BucketMetrics{Sums: a.Sums, KPIs: pipeline.DeriveKPIs(a.Sums, a.Days)}
}
