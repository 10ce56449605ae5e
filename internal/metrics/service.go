package metrics

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/store"
)

const (
	StatusActive    = "Active"
	StatusScheduled = "Scheduled"
	StatusDraft     = "Draft"
)

type Service struct {
	campaigns store.CampaignReader
	now       func() time.Time
}

func NewService(campaigns store.CampaignReader) *Service {
	return &Service{campaigns: campaigns, now: time.Now}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

// QueryCampaigns groups the campaign store into rows, filters by status and
// platform csv lists and paginates. The summary covers the unfiltered rows.
func (s *Service) QueryCampaigns(v url.Values) ([]models.CampaignRow, models.CampaignSummary, error) {
	rows := CampaignRows(s.campaigns.Campaigns(), s.now())
	summary := Summarize(rows)

	stSet := csvSet(v.Get("status"))
	plSet := csvSet(v.Get("platform"))
	limit, err := intParam(v, "limit", 100)
	if err != nil {
		return nil, summary, err
	}
	offset, err := intParam(v, "offset", 0)
	if err != nil {
		return nil, summary, err
	}

	filtered := rows[:0:0]
	for _, r := range rows {
		if len(stSet) > 0 {
			if _, ok := stSet[norm(r.Status)]; !ok {
				continue
			}
		}
		if len(plSet) > 0 && !anyIn(r.Platforms, plSet) {
			continue
		}
		filtered = append(filtered, r)
	}

	limit, offset = clampLimitOffset(limit, offset, len(filtered))
	return paginate(filtered, limit, offset), summary, nil
}

func anyIn(list []string, set map[string]struct{}) bool {
	for _, p := range list {
		if _, ok := set[norm(p)]; ok {
			return true
		}
	}
	return false
}

// CampaignRows groups campaigns by trimmed name, then batch id, then id, and
// returns them newest first.
func CampaignRows(campaigns []models.Campaign, now time.Time) []models.CampaignRow {
	groups := map[string][]models.Campaign{}
	var order []string
	for _, c := range campaigns {
		k := c.CampaignName
		if k == "" {
			k = c.BatchID
		}
		if k == "" {
			k = c.ID
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	rows := make([]models.CampaignRow, 0, len(order))
	for _, k := range order {
		items := groups[k]
		statuses := make([]string, 0, len(items))
		var reach, engagement float64
		var next *time.Time
		platforms := []string{}
		seen := map[string]struct{}{}
		for _, it := range items {
			statuses = append(statuses, it.Status)
			reach += sumReach(it.Engagement)
			engagement += sumEngagement(it.Engagement)
			if it.ScheduledAt != nil && (next == nil || it.ScheduledAt.Before(*next)) {
				next = it.ScheduledAt
			}
			for _, p := range it.Platforms {
				if _, dup := seen[p]; !dup && p != "" {
					seen[p] = struct{}{}
					platforms = append(platforms, p)
				}
			}
		}
		name := items[0].CampaignName
		if name == "" {
			name = items[0].ProductDescription
		}
		if name == "" {
			name = "Untitled Campaign"
		}
		created := now
		if items[0].CreatedAt != nil {
			created = *items[0].CreatedAt
		}
		rows = append(rows, models.CampaignRow{
			ID:          k,
			Name:        name,
			Status:      CampaignStatus(statuses),
			Platforms:   platforms,
			Posts:       len(items),
			Reach:       round2(reach),
			Engagement:  round2(engagement),
			ScheduledAt: next,
			CreatedAt:   created,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows
}

func Summarize(rows []models.CampaignRow) models.CampaignSummary {
	s := models.CampaignSummary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusActive:
			s.Active++
		case StatusScheduled:
			s.Scheduled++
		default:
			s.Drafts++
		}
	}
	return s
}

// CampaignStatus labels a campaign by strict priority: any posted member makes it
// Active, else any scheduled member makes it Scheduled, else Draft.
func CampaignStatus(statuses []string) string {
	scheduled := false
	for _, st := range statuses {
		switch norm(st) {
		case "posted":
			return StatusActive
		case "scheduled":
			scheduled = true
		}
	}
	if scheduled {
		return StatusScheduled
	}
	return StatusDraft
}

func sumReach(m models.EngagementMetrics) float64 {
	if m.Reach != nil {
		return *m.Reach
	}
	if m.Impressions != nil {
		return *m.Impressions
	}
	return 0
}

func sumEngagement(m models.EngagementMetrics) float64 {
	if m.EngagedUsers != nil {
		return *m.EngagedUsers
	}
	return m.Likes + m.Comments + m.Shares + m.Saves
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func intParam(v url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
