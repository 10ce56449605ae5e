// Package aggregate buckets normalized posts into week windows and derives the
// locally computed dashboard stats. Nothing here performs I/O or returns errors.
package aggregate

import (
	"sort"
	"time"

	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/normalize"
	"github.com/AngelCh415/socialdash/internal/week"
)

const instagram = "instagram"

// AggregateWeek counts posts per day of the Monday window and per campaign for
// Instagram posts inside it. A zero windowStart means the window containing now.
func AggregateWeek(posts []models.Post, windowStart, now time.Time) models.WeeklyAggregate {
	start := windowStart
	if start.IsZero() {
		start = week.StartOfWeek(now)
	}
	w := week.Window(start)
	out := models.WeeklyAggregate{Window: w, CampaignCounts: []models.CampaignCount{}}
	if start.IsZero() {
		return out
	}

	loc := start.Location()
	index := make(map[string]int, week.Days)
	for i, d := range w.Days {
		index[week.DateKey(d, loc)] = i
	}

	byCampaign := map[string]int{}
	var order []string
	for _, p := range posts {
		when, ok := p.When()
		if !ok {
			continue
		}
		if i, hit := index[week.DateKey(when, loc)]; hit {
			out.DailyCounts[i]++
		}
		if !p.HasPlatform(instagram) || !week.Contains(w, when) {
			continue
		}
		out.InstagramInWindow++
		name := normalize.CampaignName(p.CampaignName)
		if _, seen := byCampaign[name]; !seen {
			order = append(order, name)
		}
		byCampaign[name]++
	}

	for _, c := range out.DailyCounts {
		out.TotalInWindow += c
	}
	for _, name := range order {
		out.CampaignCounts = append(out.CampaignCounts, models.CampaignCount{CampaignName: name, Count: byCampaign[name]})
	}
	sort.SliceStable(out.CampaignCounts, func(i, j int) bool {
		return out.CampaignCounts[i].Count > out.CampaignCounts[j].Count
	})
	return out
}

// UpcomingCounts buckets posts into the seven days starting at today's midnight,
// keyed on the scheduled time. Posts without one are not upcoming.
func UpcomingCounts(posts []models.Post, now time.Time) [7]int {
	var counts [7]int
	start := week.Midnight(now)
	if start.IsZero() {
		return counts
	}
	end := start.AddDate(0, 0, week.Days)
	loc := start.Location()
	index := make(map[string]int, week.Days)
	for i, d := range week.Dates(start, week.Days) {
		index[week.DateKey(d, loc)] = i
	}
	for _, p := range posts {
		if p.ScheduledAt == nil {
			continue
		}
		when := *p.ScheduledAt
		if when.Before(start) || !when.Before(end) {
			continue
		}
		if i, hit := index[week.DateKey(when, loc)]; hit {
			counts[i]++
		}
	}
	return counts
}

// ScheduledSource picks the feed for upcoming counts: scheduled posts, then
// calendar events, then all posts with status "scheduled".
func ScheduledSource(scheduled, events, all []models.Post) []models.Post {
	if len(scheduled) > 0 {
		return scheduled
	}
	if len(events) > 0 {
		return events
	}
	out := make([]models.Post, 0)
	for _, p := range all {
		if p.Status == "scheduled" {
			out = append(out, p)
		}
	}
	return out
}

func sum7(c [7]int) int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
