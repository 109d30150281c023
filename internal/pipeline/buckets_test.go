package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsight/adsight/internal/models"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func TestDailyBuckets(t *testing.T) {
	buckets, err := BuildBuckets("2024-01-01", "2024-01-03", models.Daily, testNow)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "2024-01-01", buckets[0].Key)
	assert.Equal(t, "Jan 1", buckets[0].Label)
	assert.Equal(t, "2024-01-03", buckets[2].Key)
	assert.Equal(t, buckets[1].Start, buckets[1].End)
}

func TestWeeklyBucketsMondayStart(t *testing.T) {
	// 2024-01-03 is a Wednesday; its week's Monday is 2024-01-01.
	buckets, err := BuildBuckets("2024-01-03", "2024-01-16", models.Weekly, testNow)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, "2024-01-01", buckets[0].Key, "key is the Monday even for a truncated week")
	assert.Equal(t, "2024-01-03", buckets[0].Start, "first bucket truncates to the range")
	assert.Equal(t, "2024-01-07", buckets[0].End)
	assert.Equal(t, "Jan 1 - Jan 7", buckets[0].Label, "label keeps the full week")

	assert.Equal(t, "2024-01-08", buckets[1].Start)
	assert.Equal(t, "2024-01-14", buckets[1].End)

	assert.Equal(t, "2024-01-15", buckets[2].Start)
	assert.Equal(t, "2024-01-16", buckets[2].End, "last bucket truncates to the range")
}

func TestMonthlyBuckets(t *testing.T) {
	buckets, err := BuildBuckets("2024-01-15", "2024-03-10", models.Monthly, testNow)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "2024-01", buckets[0].Key)
	assert.Equal(t, "Jan '24", buckets[0].Label)
	assert.Equal(t, "2024-01-15", buckets[0].Start)
	assert.Equal(t, "2024-01-31", buckets[0].End)
	assert.Equal(t, "2024-02-01", buckets[1].Start)
	assert.Equal(t, "2024-02-29", buckets[1].End)
	assert.Equal(t, "2024-03-10", buckets[2].End)
}

func TestRollingQuarterIgnoresRange(t *testing.T) {
	buckets, err := BuildBuckets("2024-01-01", "2024-01-02", models.Quarterly, testNow)
	require.NoError(t, err)
	require.Len(t, buckets, 3, "rolling quarter is always three windows")

	assert.Equal(t, "2024-03-16", buckets[0].Start)
	assert.Equal(t, "2024-04-15", buckets[0].End)
	assert.Equal(t, "2024-05-15", buckets[1].End)
	assert.Equal(t, "2024-06-15", buckets[2].End, "last window ends today")

	// Contiguous, non-overlapping.
	for i := 1; i < len(buckets); i++ {
		prevEnd, _ := time.Parse(models.DateLayout, buckets[i-1].End)
		assert.Equal(t, prevEnd.AddDate(0, 0, 1).Format(models.DateLayout), buckets[i].Start)
	}
}

func TestInvalidRange(t *testing.T) {
	_, err := BuildBuckets("2024-02-01", "2024-01-01", models.Daily, testNow)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBadDates(t *testing.T) {
	_, err := BuildBuckets("garbage", "2024-01-01", models.Daily, testNow)
	assert.Error(t, err)
	_, err = BuildBuckets("2024-01-01", "garbage", models.Daily, testNow)
	assert.Error(t, err)
}

// Coverage property: the union of bucket intervals equals the range with no
// gaps, no overlaps, and keys strictly ascending.
func TestBucketCoverage(t *testing.T) {
	for _, g := range []models.Granularity{models.Daily, models.Weekly, models.Monthly} {
		buckets, err := BuildBuckets("2024-01-05", "2024-03-20", g, testNow)
		require.NoError(t, err, g)
		require.NotEmpty(t, buckets, g)

		assert.Equal(t, "2024-01-05", buckets[0].Start, g)
		assert.Equal(t, "2024-03-20", buckets[len(buckets)-1].End, g)

		seen := map[string]bool{}
		for i, b := range buckets {
			assert.LessOrEqual(t, b.Start, b.End, g)
			assert.False(t, seen[b.Key], "duplicate key %s for %s", b.Key, g)
			seen[b.Key] = true
			if i > 0 {
				prevEnd, _ := time.Parse(models.DateLayout, buckets[i-1].End)
				assert.Equal(t, prevEnd.AddDate(0, 0, 1).Format(models.DateLayout), b.Start,
					"%s buckets must be contiguous", g)
				assert.Less(t, buckets[i-1].Start, b.Start, g)
			}
		}
	}
}
