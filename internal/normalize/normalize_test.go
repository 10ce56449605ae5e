package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/socialdash/internal/models"
)

func decode(t *testing.T, s string) models.RawRecord {
	t.Helper()
	var r models.RawRecord
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestPostDefaults(t *testing.T) {
	p := Post(decode(t, `{"id": 7}`), KindPost, 0)
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "Untitled campaign", p.CampaignName)
	assert.Equal(t, "", p.Status)
	assert.Equal(t, "", p.Description)
	assert.Empty(t, p.Platforms)
	assert.Nil(t, p.CreatedAt)
	assert.Nil(t, p.ScheduledAt)
}

func TestBlankCampaignNameFallsBack(t *testing.T) {
	p := Post(decode(t, `{"campaign_name": "   "}`), KindPost, 3)
	assert.Equal(t, "Untitled campaign", p.CampaignName)
	assert.Equal(t, "3", p.ID)

	p = Post(decode(t, `{"campaign_name": "  Sale "}`), KindPost, 0)
	assert.Equal(t, "Sale", p.CampaignName)
}

func TestTimestampPriority(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"scheduled_at wins", `{"scheduled_at":"2025-08-05T10:00:00Z","start":"2025-08-06T10:00:00Z"}`, "2025-08-05T10:00:00Z"},
		{"scheduled_time", `{"scheduled_time":"2025-08-07T10:00:00Z","date":"2025-08-01"}`, "2025-08-07T10:00:00Z"},
		{"camelCase", `{"scheduledAt":"2025-08-08T10:00:00Z","start_time":"2025-08-09T10:00:00Z"}`, "2025-08-08T10:00:00Z"},
		{"start_time over start", `{"start_time":"2025-08-09T10:00:00Z","start":"2025-08-10T10:00:00Z"}`, "2025-08-09T10:00:00Z"},
		{"null skipped", `{"scheduled_at":null,"start":"2025-08-10T10:00:00Z"}`, "2025-08-10T10:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Post(decode(t, tc.raw), KindPost, 0)
			require.NotNil(t, p.ScheduledAt)
			want, _ := time.Parse(time.RFC3339, tc.want)
			assert.True(t, want.Equal(*p.ScheduledAt))
		})
	}
}

func TestInvalidTimestampIsAbsent(t *testing.T) {
	p := Post(decode(t, `{"scheduled_at":"not a date","created_at":"yesterday"}`), KindPost, 0)
	assert.Nil(t, p.ScheduledAt)
	assert.Nil(t, p.CreatedAt)
	_, ok := p.When()
	assert.False(t, ok)
}

func TestDescriptionPriority(t *testing.T) {
	p := Post(decode(t, `{"caption":"cap","title":"ttl"}`), KindPost, 0)
	assert.Equal(t, "cap", p.Description)
	p = Post(decode(t, `{"original_description":"orig","caption":"cap"}`), KindPost, 0)
	assert.Equal(t, "orig", p.Description)
	p = Post(decode(t, `{"message":"msg"}`), KindPost, 0)
	assert.Equal(t, "msg", p.Description)
}

func TestPlatformResolution(t *testing.T) {
	p := Post(decode(t, `{"platforms":["Instagram","FACEBOOK","instagram"],"platform":"twitter"}`), KindPost, 0)
	assert.Equal(t, []string{"instagram", "facebook"}, p.Platforms)

	p = Post(decode(t, `{"platform":"Instagram"}`), KindPost, 0)
	assert.Equal(t, []string{"instagram"}, p.Platforms)
	assert.True(t, p.HasPlatform("instagram"))

	p = Post(decode(t, `{"metadata":{"platforms":["Reddit"]}}`), KindPost, 0)
	assert.Equal(t, []string{"reddit"}, p.Platforms)

	p = Post(decode(t, `{}`), KindPost, 0)
	assert.Empty(t, p.Platforms)

	ev := Post(decode(t, `{"title":"Post Event"}`), KindCalendarEvent, 0)
	assert.Equal(t, []string{"instagram"}, ev.Platforms)
}

func TestStatusAsymmetry(t *testing.T) {
	assert.Equal(t, "scheduled", Post(decode(t, `{}`), KindScheduled, 0).Status)
	assert.Equal(t, "", Post(decode(t, `{}`), KindPost, 0).Status)
	assert.Equal(t, "posted", Post(decode(t, `{"status":"Posted"}`), KindScheduled, 0).Status)
}

func TestMediaRecord(t *testing.T) {
	p := Post(decode(t, `{"id":"17890","timestamp":"2025-08-05T09:30:00+0000","caption":"hi","like_count":12,"comments_count":-1,"media_url":"https://cdn/x.jpg"}`), KindMedia, 0)
	assert.Equal(t, "17890", p.ID)
	assert.Equal(t, 12, p.LikeCount)
	assert.Equal(t, 0, p.CommentsCnt)
	assert.Equal(t, "https://cdn/x.jpg", p.MediaURL)
	require.NotNil(t, p.CreatedAt, "graph api offset without colon")
	assert.Equal(t, "2025-08-05T09:30:00Z", p.CreatedAt.UTC().Format(time.RFC3339))

	p = Post(decode(t, `{"timestamp":"2025-08-05T09:30:00Z"}`), KindMedia, 0)
	require.NotNil(t, p.CreatedAt)
	assert.Nil(t, p.ScheduledAt)
}

func TestIDFallbacks(t *testing.T) {
	assert.Equal(t, "p-1", Post(decode(t, `{"post_id":"p-1"}`), KindScheduled, 4).ID)
	assert.Equal(t, "e-1", Post(decode(t, `{"event_id":"e-1"}`), KindScheduled, 4).ID)
	assert.Equal(t, "4", Post(decode(t, `{}`), KindScheduled, 4).ID)
}

func TestEpochMillis(t *testing.T) {
	p := Post(decode(t, `{"created_at": 1754380800000}`), KindPost, 0)
	require.NotNil(t, p.CreatedAt)
	assert.Equal(t, int64(1754380800000), p.CreatedAt.UnixMilli())
}

func TestCampaignRecord(t *testing.T) {
	c := Campaign(decode(t, `{"id":"c1","campaignName":" Launch ","batchId":"b1","status":"Posted","platforms":["Instagram"],
		"scheduledAt":"2025-08-05T10:00:00Z","engagementMetrics":{"reach":120,"reactions":{"likes":4},"comments":2,"shares":1}}`), 0)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Launch", c.CampaignName)
	assert.Equal(t, "posted", c.Status)
	assert.Equal(t, []string{"instagram"}, c.Platforms)
	require.NotNil(t, c.Engagement.Reach)
	assert.Equal(t, 120.0, *c.Engagement.Reach)
	assert.Equal(t, 4.0, c.Engagement.Likes)
	assert.Equal(t, 2.0, c.Engagement.Comments)
	assert.NotNil(t, c.ScheduledAt)
}

func TestTopicDetailsShapes(t *testing.T) {
	d := TopicDetails(decode(t, `{"overview":"o","keyPoints":["a","b"],"related_topics":["x"]}`))
	assert.Equal(t, "o", d.Overview)
	assert.Equal(t, []string{"a", "b"}, d.KeyPoints)
	assert.Equal(t, []string{"x"}, d.RelatedTopics)

	d = TopicDetails(nil)
	assert.Empty(t, d.KeyPoints)
}
