// Package week computes Monday-start week windows and per-day bucket keys.
// All functions are pure. A zero time propagates through them without panicking
// and never matches a bucket.
package week

import (
	"time"

	"github.com/AngelCh415/socialdash/internal/models"
)

const (
	Days       = 7
	dateLayout = "2006-01-02"
)

// StartOfWeek rewinds now to the most recent Monday at 00:00:00.000 in now's location.
func StartOfWeek(now time.Time) time.Time {
	if now.IsZero() {
		return time.Time{}
	}
	back := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, now.Location())
}

// EndOfWeek is start + 6 days at 23:59:59.999 wall clock. Across a DST change
// the elapsed time from start differs from 167h59m59.999s by the shift.
func EndOfWeek(start time.Time) time.Time {
	if start.IsZero() {
		return time.Time{}
	}
	y, m, d := start.Date()
	return time.Date(y, m, d+6, 23, 59, 59, int(999*time.Millisecond), start.Location())
}

// Dates returns count consecutive calendar days from from, keeping its time of day.
func Dates(from time.Time, count int) []time.Time {
	if count <= 0 {
		count = Days
	}
	out := make([]time.Time, 0, count)
	y, m, d := from.Date()
	h, mi, s := from.Clock()
	for i := 0; i < count; i++ {
		if from.IsZero() {
			out = append(out, time.Time{})
			continue
		}
		out = append(out, time.Date(y, m, d+i, h, mi, s, from.Nanosecond(), from.Location()))
	}
	return out
}

func Window(start time.Time) models.WeekWindow {
	return models.WeekWindow{
		Start: start,
		End:   EndOfWeek(start),
		Days:  Dates(start, Days),
	}
}

// DateKey formats t as yyyy-MM-dd in loc. The zero time has no key.
func DateKey(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(dateLayout)
}

// Contains reports whether t falls inside [w.Start, w.End].
func Contains(w models.WeekWindow, t time.Time) bool {
	if t.IsZero() || w.Start.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// Midnight truncates t to 00:00 of its calendar day.
func Midnight(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
