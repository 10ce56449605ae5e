package aggregate

import (
	"sort"
	"time"

	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/week"
)

const DefaultAvgEngagement = 4.6

var (
	activePostStatus     = map[string]bool{"scheduled": true, "posted": true, "published": true, "active": true}
	activeCampaignStatus = map[string]bool{"scheduled": true, "posted": true, "published": true}
)

type StatsInput struct {
	Posts     []models.Post
	Campaigns []models.Campaign
	Upcoming  [7]int
	// AvgEngagement is used when no authoritative value exists; 0 means DefaultAvgEngagement.
	AvgEngagement float64
}

// LocalStats derives dashboard stats from raw posts, falling back to the
// campaign store when no posts were loaded.
func LocalStats(in StatsInput, now time.Time) models.AggregateStats {
	hasPosts := len(in.Posts) > 0
	w := week.Window(week.StartOfWeek(now))

	ids := map[string]struct{}{}
	if hasPosts {
		for _, p := range in.Posts {
			ids[PostCampaignKey(p)] = struct{}{}
		}
	} else {
		for _, c := range in.Campaigns {
			ids[storeCampaignKey(c)] = struct{}{}
		}
	}

	postsThisWeek := sum7(in.Upcoming)
	if postsThisWeek == 0 && hasPosts {
		for _, p := range in.Posts {
			if when, ok := p.When(); ok && week.Contains(w, when) {
				postsThisWeek++
			}
		}
	}

	active := 0
	if hasPosts {
		for _, p := range in.Posts {
			when, ok := p.ScheduledWhen()
			if activePostStatus[p.Status] || (ok && week.Contains(w, when)) {
				active++
			}
		}
	} else {
		for _, c := range in.Campaigns {
			if activeCampaignStatus[c.Status] {
				active++
			}
		}
	}

	total := len(in.Campaigns)
	if hasPosts {
		total = len(in.Posts)
	}
	avg := in.AvgEngagement
	if avg <= 0 {
		avg = DefaultAvgEngagement
	}
	return models.AggregateStats{
		TotalCampaigns: len(ids),
		PostsThisWeek:  postsThisWeek,
		ActiveCount:    active,
		AvgEngagement:  avg,
		TotalPosts:     total,
	}
}

// PostCampaignKey groups posts into campaigns: name, then batch id, then the post itself.
func PostCampaignKey(p models.Post) string {
	if p.CampaignName != "" && p.CampaignName != models.UntitledCampaign {
		return p.CampaignName
	}
	if p.BatchID != "" {
		return p.BatchID
	}
	return "post_" + p.ID
}

func storeCampaignKey(c models.Campaign) string {
	switch {
	case c.BatchID != "":
		return c.BatchID
	case c.CampaignName != "":
		return c.CampaignName
	}
	return "single_" + c.ID
}

// RecentActivity lists the n newest campaigns, or the n newest posts when the
// campaign store is empty.
func RecentActivity(campaigns []models.Campaign, posts []models.Post, n int, now time.Time) []models.Activity {
	out := []models.Activity{}
	if len(campaigns) > 0 {
		cs := append([]models.Campaign(nil), campaigns...)
		sort.SliceStable(cs, func(i, j int) bool { return tsOr(cs[i].CreatedAt, time.Time{}).After(tsOr(cs[j].CreatedAt, time.Time{})) })
		for _, c := range head(len(cs), n) {
			text := firstNonEmpty(cs[c].CampaignName, cs[c].ProductDescription, "Campaign created")
			out = append(out, models.Activity{Text: text, Time: tsOr(cs[c].CreatedAt, now)})
		}
		return out
	}
	ps := append([]models.Post(nil), posts...)
	sort.SliceStable(ps, func(i, j int) bool { return tsOr(ps[i].CreatedAt, time.Time{}).After(tsOr(ps[j].CreatedAt, time.Time{})) })
	for _, i := range head(len(ps), n) {
		name := ps[i].CampaignName
		if name == models.UntitledCampaign {
			name = ""
		}
		text := firstNonEmpty(name, ps[i].Description, "Campaign "+ps[i].ID)
		out = append(out, models.Activity{Text: text, Time: tsOr(ps[i].CreatedAt, now)})
	}
	return out
}

func head(length, n int) []int {
	if n > length {
		n = length
	}
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}

func tsOr(t *time.Time, def time.Time) time.Time {
	if t == nil {
		return def
	}
	return *t
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
