package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	// Wednesday
	date := time.Date(2025, 3, 12, 15, 30, 0, 0, warsaw)

	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, warsaw), StartOfWeek(date, time.Sunday, warsaw))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, warsaw), StartOfWeek(date, time.Monday, warsaw))

	sunday := time.Date(2025, 3, 16, 8, 0, 0, 0, warsaw)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, warsaw), StartOfWeek(sunday, time.Monday, warsaw))
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, warsaw), StartOfWeek(sunday, time.Sunday, warsaw))
}

func TestBucketByDay(t *testing.T) {
	t.Run("should bucket by local start date", func(t *testing.T) {
		// given
		loc := time.FixedZone("UTC+2", 2*60*60)
		from := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
		events := []testEvent{
			// 23:30 UTC on the 9th is 01:30 on the 10th locally
			{name: "early", start: time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC), end: time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)},
			{name: "late-night", start: time.Date(2025, 3, 12, 23, 0, 0, 0, loc), end: time.Date(2025, 3, 13, 1, 0, 0, 0, loc)},
			{name: "before", start: time.Date(2025, 3, 9, 12, 0, 0, 0, loc), end: time.Date(2025, 3, 9, 13, 0, 0, 0, loc)},
			{name: "after", start: time.Date(2025, 3, 13, 0, 0, 0, 0, loc), end: time.Date(2025, 3, 13, 1, 0, 0, 0, loc)},
			{name: "noon", start: time.Date(2025, 3, 10, 12, 0, 0, 0, loc), end: time.Date(2025, 3, 10, 13, 0, 0, 0, loc)},
		}

		// when
		buckets := BucketByDay(events, from, 3, loc)

		// then
		require.Len(t, buckets, 3)
		require.Len(t, buckets[0], 2)
		assert.Equal(t, "early", buckets[0][0].name)
		assert.Equal(t, "noon", buckets[0][1].name)
		assert.Empty(t, buckets[1])
		require.Len(t, buckets[2], 1)
		assert.Equal(t, "late-night", buckets[2][0].name)
	})

	t.Run("should handle daylight saving change", func(t *testing.T) {
		// given
		warsaw, err := time.LoadLocation("Europe/Warsaw")
		require.NoError(t, err)
		// clocks go forward on 2025-03-30
		from := time.Date(2025, 3, 29, 0, 0, 0, 0, warsaw)
		events := []testEvent{
			{name: "sunday", start: time.Date(2025, 3, 30, 9, 0, 0, 0, warsaw), end: time.Date(2025, 3, 30, 10, 0, 0, 0, warsaw)},
			{name: "monday", start: time.Date(2025, 3, 31, 0, 15, 0, 0, warsaw), end: time.Date(2025, 3, 31, 1, 0, 0, 0, warsaw)},
		}

		// when
		buckets := BucketByDay(events, from, 3, warsaw)

		// then
		assert.Empty(t, buckets[0])
		require.Len(t, buckets[1], 1)
		assert.Equal(t, "sunday", buckets[1][0].name)
		require.Len(t, buckets[2], 1)
		assert.Equal(t, "monday", buckets[2][0].name)
	})

	t.Run("should return nil for no days", func(t *testing.T) {
		assert.Nil(t, BucketByDay([]testEvent{}, day, 0, time.UTC))
	})
}

func TestPlacement_Box(t *testing.T) {
	t.Run("should derive day view geometry", func(t *testing.T) {
		// given
		p := Placement[testEvent]{Event: ev("a", 9, 30, 11, 0), Column: 1, ColumnCount: 4}

		// when
		box := p.Box(DayViewMetrics, time.UTC)

		// then
		assert.InDelta(t, 9.5*64, box.Top, 0.001)
		assert.InDelta(t, 1.5*64, box.Height, 0.001)
		assert.InDelta(t, 0.25, box.Left, 0.001)
		assert.InDelta(t, 0.25, box.Width, 0.001)
	})

	t.Run("should apply minimum height", func(t *testing.T) {
		// given
		p := Placement[testEvent]{Event: ev("a", 9, 0, 9, 15), Column: 0, ColumnCount: 1}

		// when
		box := p.Box(WeekViewMetrics, time.UTC)

		// then
		assert.InDelta(t, 9*48, box.Top, 0.001)
		assert.InDelta(t, 32, box.Height, 0.001)
		assert.InDelta(t, 0, box.Left, 0.001)
		assert.InDelta(t, 1, box.Width, 0.001)
	})

	t.Run("should collapse event ending after midnight", func(t *testing.T) {
		// given
		p := Placement[testEvent]{Event: ev("a", 23, 0, 25, 0), ColumnCount: 1}

		// when
		box := p.Box(DayViewMetrics, time.UTC)

		// then
		assert.InDelta(t, 23*64, box.Top, 0.001)
		assert.InDelta(t, 32, box.Height, 0.001)
	})

	t.Run("should treat missing column count as one", func(t *testing.T) {
		box := Placement[testEvent]{Event: ev("a", 1, 0, 2, 0)}.Box(DayViewMetrics, time.UTC)
		assert.InDelta(t, 1, box.Width, 0.001)
	})
}
