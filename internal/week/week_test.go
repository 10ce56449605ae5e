package week

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeekIsMondayMidnight(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	base := time.Date(2025, 8, 1, 15, 30, 12, 500, loc) // Friday
	for i := 0; i < 21; i++ {
		d := base.AddDate(0, 0, i)
		s := StartOfWeek(d)
		assert.Equal(t, time.Monday, s.Weekday(), "day %s", d)
		h, m, sec := s.Clock()
		assert.Zero(t, h+m+sec+s.Nanosecond())
		assert.False(t, s.After(d))
		assert.True(t, d.Sub(s) < 7*24*time.Hour)
		assert.Equal(t, s, StartOfWeek(s), "idempotent")
	}
}

func TestStartOfWeekMondayIsSameDay(t *testing.T) {
	mon := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), StartOfWeek(mon))

	sun := time.Date(2025, 8, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), StartOfWeek(sun))
}

func TestEndOfWeekSpan(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	end := EndOfWeek(start)
	want := 6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond
	assert.Equal(t, want, end.Sub(start))
	assert.Equal(t, time.Sunday, end.Weekday())
}

func TestDatesKeepTimeOfDay(t *testing.T) {
	from := time.Date(2025, 12, 29, 8, 15, 0, 0, time.UTC)
	ds := Dates(from, 0)
	require.Len(t, ds, 7)
	assert.Equal(t, from, ds[0])
	assert.Equal(t, time.Date(2026, 1, 4, 8, 15, 0, 0, time.UTC), ds[6])

	assert.Len(t, Dates(from, 3), 3)
}

func TestZeroTimePropagates(t *testing.T) {
	assert.True(t, StartOfWeek(time.Time{}).IsZero())
	assert.True(t, EndOfWeek(time.Time{}).IsZero())
	assert.Equal(t, "", DateKey(time.Time{}, time.UTC))
	w := Window(time.Time{})
	assert.False(t, Contains(w, time.Now()))
}

func TestWindowBounds(t *testing.T) {
	start := StartOfWeek(time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC))
	w := Window(start)
	assert.Equal(t, w.Start, w.Days[0])
	assert.Equal(t, EndOfWeek(start), w.End)
	assert.True(t, Contains(w, w.End))
	assert.False(t, Contains(w, w.End.Add(time.Millisecond)))
	assert.Equal(t, "2025-08-10", DateKey(w.Days[6], time.UTC))
}

func TestWeekAcrossDSTKeepsWallClock(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks spring forward on Sunday 2025-03-09
	start := StartOfWeek(time.Date(2025, 3, 5, 12, 0, 0, 0, ny))
	end := EndOfWeek(start)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, ny), start)
	assert.Equal(t, time.Date(2025, 3, 9, 23, 59, 59, int(999*time.Millisecond), ny), end)
	assert.Equal(t, 166*time.Hour+59*time.Minute+59*time.Second+999*time.Millisecond, end.Sub(start))

	days := Dates(start, Days)
	for i, d := range days {
		h, m, _ := d.Clock()
		assert.Zero(t, h+m, "day %d starts at midnight", i)
	}
	assert.Equal(t, "2025-03-09", DateKey(days[6], ny))

	// and fall back on Sunday 2025-11-02
	start = StartOfWeek(time.Date(2025, 10, 29, 12, 0, 0, 0, ny))
	assert.Equal(t, 168*time.Hour+time.Hour-time.Millisecond, EndOfWeek(start).Sub(start))
}
