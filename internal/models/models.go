package models

import (
	"strings"
	"time"
)

const UntitledCampaign = "Untitled campaign"

// RawRecord is an untyped upstream record (post, scheduled post, calendar event, media).
type RawRecord = map[string]any

type Post struct {
	ID           string     `json:"id"`
	CampaignName string     `json:"campaign_name"`
	Description  string     `json:"original_description"`
	Caption      string     `json:"caption"`
	Platform     string     `json:"platform,omitempty"`
	Platforms    []string   `json:"platforms"` // lower-cased, unique
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Status       string     `json:"status"` // lower-cased
	LikeCount    int        `json:"like_count"`
	CommentsCnt  int        `json:"comments_count"`
	MediaURL     string     `json:"media_url,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
}

// When is the timestamp used for weekly bucketing: created first, scheduled second.
func (p Post) When() (time.Time, bool) {
	if p.CreatedAt != nil {
		return *p.CreatedAt, true
	}
	if p.ScheduledAt != nil {
		return *p.ScheduledAt, true
	}
	return time.Time{}, false
}

// ScheduledWhen prefers the scheduled timestamp; used for the active count.
func (p Post) ScheduledWhen() (time.Time, bool) {
	if p.ScheduledAt != nil {
		return *p.ScheduledAt, true
	}
	if p.CreatedAt != nil {
		return *p.CreatedAt, true
	}
	return time.Time{}, false
}

// HasPlatform checks both the scalar platform and the platform set.
func (p Post) HasPlatform(name string) bool {
	if strings.EqualFold(strings.TrimSpace(p.Platform), name) {
		return true
	}
	for _, pl := range p.Platforms {
		if strings.EqualFold(pl, name) {
			return true
		}
	}
	return false
}

type Campaign struct {
	ID                 string
	CampaignName       string
	ProductDescription string
	BatchID            string
	Status             string // lower-cased
	Platforms          []string
	ScheduledAt        *time.Time
	CreatedAt          *time.Time
	Engagement         EngagementMetrics
}

type EngagementMetrics struct {
	Reach        *float64
	Impressions  *float64
	EngagedUsers *float64
	Likes        float64
	Comments     float64
	Shares       float64
	Saves        float64
}

type WeekWindow struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Days  []time.Time `json:"days"`
}

type CampaignCount struct {
	CampaignName string `json:"campaign"`
	Count        int    `json:"count"`
}

type WeeklyAggregate struct {
	Window            WeekWindow      `json:"window"`
	DailyCounts       [7]int          `json:"daily_counts"`
	CampaignCounts    []CampaignCount `json:"campaign_counts"`
	TotalInWindow     int             `json:"total_in_window"`
	InstagramInWindow int             `json:"instagram_in_window"`
}

func (w WeeklyAggregate) Empty() bool { return w.TotalInWindow == 0 && len(w.CampaignCounts) == 0 }

type AggregateStats struct {
	TotalCampaigns int     `json:"total_campaigns"`
	PostsThisWeek  int     `json:"posts_this_week"`
	ActiveCount    int     `json:"active"`
	AvgEngagement  float64 `json:"avg_engagement"`
	TotalPosts     int     `json:"total_posts"`
}

// PartialStats is an authoritative backend summary; nil fields are unknown.
type PartialStats struct {
	TotalCampaigns *int     `json:"total,omitempty"`
	PostsThisWeek  *int     `json:"scheduledThisWeek,omitempty"`
	ActiveCount    *int     `json:"active,omitempty"`
	AvgEngagement  *float64 `json:"avgEngagement,omitempty"`
	TotalPosts     *int     `json:"totalPosts,omitempty"`
}

type Activity struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

type CampaignRow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Platforms   []string   `json:"platforms"`
	Posts       int        `json:"posts"`
	Reach       float64    `json:"reach"`
	Engagement  float64    `json:"engagement"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CampaignSummary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Scheduled int `json:"scheduled"`
	Drafts    int `json:"drafts"`
}

type TopicDetails struct {
	Overview      string   `json:"overview"`
	KeyPoints     []string `json:"key_points"`
	RelatedTopics []string `json:"related_topics"`
}

type ServiceUsage struct {
	TokensUsed  float64 `json:"tokens_used"`
	CreditsUsed float64 `json:"credits_used"`
}

type UsageTotals struct {
	Services map[string]ServiceUsage `json:"services"`
	Tokens   float64                 `json:"total_tokens"`
	Credits  float64                 `json:"total_credits"`
}

type ConnectionStatus struct {
	Provider  string    `json:"provider"`
	Connected bool      `json:"connected"`
	Polling   bool      `json:"polling"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}
