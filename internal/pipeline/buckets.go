package pipeline

import (
	"fmt"
	"time"

	"github.com/adsight/adsight/internal/models"
)

// BuildBuckets produces the ordered, contiguous bucket set spanning
// [start, end] for the given granularity. Quarterly is the one exception:
// it is a rolling view of the last three months ending at now, independent
// of the selected range (product choice, not calendar quarters); now is an
// explicit argument so the result is deterministic.
func BuildBuckets(start, end string, g models.Granularity, now time.Time) ([]models.Bucket, error) {
	s, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", start, err)
	}
	e, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", end, err)
	}
	if s.After(e) {
		return nil, ErrInvalidRange
	}

	switch g {
	case models.Daily:
		return dailyBuckets(s, e), nil
	case models.Weekly:
		return weeklyBuckets(s, e), nil
	case models.Monthly:
		return monthlyBuckets(s, e), nil
	case models.Quarterly:
		return rollingQuarter(now), nil
	}
	return nil, fmt.Errorf("unknown granularity %q", g)
}

func dailyBuckets(s, e time.Time) []models.Bucket {
	var out []models.Bucket
	for c := s; !c.After(e); c = c.AddDate(0, 0, 1) {
		d := c.Format(models.DateLayout)
		out = append(out, models.Bucket{
			Key:   d,
			Label: c.Format("Jan 2"),
			Start: d,
			End:   d,
		})
	}
	return out
}

// weeklyBuckets uses Monday-start weeks. The bucket key is the Monday date
// even when the first or last bucket is truncated to the range; the label
// always shows the full week so partial weeks read the same in charts.
func weeklyBuckets(s, e time.Time) []models.Bucket {
	var out []models.Bucket
	for monday := mondayOf(s); !monday.After(e); monday = monday.AddDate(0, 0, 7) {
		sunday := monday.AddDate(0, 0, 6)
		out = append(out, models.Bucket{
			Key:   monday.Format(models.DateLayout),
			Label: monday.Format("Jan 2") + " - " + sunday.Format("Jan 2"),
			Start: laterOf(monday, s).Format(models.DateLayout),
			End:   earlierOf(sunday, e).Format(models.DateLayout),
		})
	}
	return out
}

func monthlyBuckets(s, e time.Time) []models.Bucket {
	var out []models.Bucket
	for first := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC); !first.After(e); first = first.AddDate(0, 1, 0) {
		last := first.AddDate(0, 1, -1)
		out = append(out, models.Bucket{
			Key:   first.Format("2006-01"),
			Label: first.Format("Jan '06"),
			Start: laterOf(first, s).Format(models.DateLayout),
			End:   earlierOf(last, e).Format(models.DateLayout),
		})
	}
	return out
}

// rollingQuarter splits today-minus-3-months..today into three consecutive
// month-sized windows ending today.
func rollingQuarter(now time.Time) []models.Bucket {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]models.Bucket, 0, 3)
	for i := 0; i < 3; i++ {
		start := today.AddDate(0, i-3, 0).AddDate(0, 0, 1)
		end := today.AddDate(0, i-2, 0)
		out = append(out, models.Bucket{
			Key:   start.Format(models.DateLayout),
			Label: start.Format("Jan 2") + " - " + end.Format("Jan 2"),
			Start: start.Format(models.DateLayout),
			End:   end.Format(models.DateLayout),
		})
	}
	return out
}

func mondayOf(t time.Time) time.Time {
	delta := (int(t.Weekday()) + 6) % 7 // Mon=0 .. Sun=6
	return t.AddDate(0, 0, -delta)
}

func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}

func earlierOf(a, b time.Time) time.Time {
	if a.After(b) {
		return b
	}
	return a
}
