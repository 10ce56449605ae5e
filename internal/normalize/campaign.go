package normalize

import (
	"strings"

	"github.com/AngelCh415/socialdash/internal/models"
)

var (
	campaignIDFields    = keys("id", "batchId", "batch_id")
	productFields       = keys("productDescription", "product_description")
	campaignSchedFields = keys("scheduledAt", "scheduled_at")
	campaignCreated     = keys("createdAt", "created_at")
	engagementFields    = keys("engagementMetrics", "engagement_metrics")
)

// Campaign normalizes a record from the campaign list endpoint.
func Campaign(raw models.RawRecord, idx int) models.Campaign {
	if raw == nil {
		raw = models.RawRecord{}
	}
	c := models.Campaign{
		ID:                 idString(raw, idx),
		CampaignName:       strings.TrimSpace(str(first(raw, campaignFields))),
		ProductDescription: strings.TrimSpace(str(first(raw, productFields))),
		BatchID:            str(first(raw, batchFields)),
		Status:             strings.ToLower(strings.TrimSpace(str(first(raw, statusFields)))),
		Platforms:          platforms(raw, KindPost),
		ScheduledAt:        timestamp(raw, campaignSchedFields),
		CreatedAt:          timestamp(raw, campaignCreated),
	}
	if v, ok := first(raw, campaignIDFields); ok {
		c.ID = str(v, true)
	}
	if m, ok := first(raw, engagementFields); ok {
		if mm, isMap := m.(map[string]any); isMap {
			c.Engagement = engagement(mm)
		}
	}
	return c
}

func Campaigns(raws []models.RawRecord) []models.Campaign {
	out := make([]models.Campaign, 0, len(raws))
	for i, r := range raws {
		out = append(out, Campaign(r, i))
	}
	return out
}

func engagement(m map[string]any) models.EngagementMetrics {
	var e models.EngagementMetrics
	if f, ok := number(m["reach"], m["reach"] != nil); ok {
		e.Reach = &f
	}
	if f, ok := number(m["impressions"], m["impressions"] != nil); ok {
		e.Impressions = &f
	}
	if f, ok := number(m["engaged_users"], m["engaged_users"] != nil); ok {
		e.EngagedUsers = &f
	}
	if r, ok := m["reactions"].(map[string]any); ok {
		e.Likes = float64(nonNegInt(first(r, keys("like", "likes"))))
	}
	e.Comments = float64(nonNegInt(m["comments"], m["comments"] != nil))
	e.Shares = float64(nonNegInt(m["shares"], m["shares"] != nil))
	e.Saves = float64(nonNegInt(m["saves"], m["saves"] != nil))
	return e
}

// TopicDetails accepts both camelCase and snake_case detail payloads.
func TopicDetails(raw models.RawRecord) models.TopicDetails {
	if raw == nil {
		raw = models.RawRecord{}
	}
	return models.TopicDetails{
		Overview:      str(first(raw, keys("overview"))),
		KeyPoints:     strList(first(raw, keyPointFields)),
		RelatedTopics: strList(first(raw, relatedTopicFields)),
	}
}
