package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelCh415/socialdash/internal/models"
)

func TestLocalStatsFromPosts(t *testing.T) {
	posts := []models.Post{
		{ID: "1", CampaignName: "Sale", Status: "posted", CreatedAt: at(1, 9)},
		{ID: "2", CampaignName: "Sale", Status: "draft", CreatedAt: at(5, 9)},
		{ID: "3", CampaignName: models.UntitledCampaign, BatchID: "b1", Status: ""},
		{ID: "4", CampaignName: models.UntitledCampaign, Status: "", ScheduledAt: at(20, 9)},
	}
	st := LocalStats(StatsInput{Posts: posts}, now)
	assert.Equal(t, 3, st.TotalCampaigns) // Sale, b1, post_4
	assert.Equal(t, 1, st.PostsThisWeek)  // fallback: only post 2 is in window
	assert.Equal(t, 2, st.ActiveCount)    // post 1 by status, post 2 by date
	assert.Equal(t, 4, st.TotalPosts)
	assert.Equal(t, DefaultAvgEngagement, st.AvgEngagement)
}

func TestLocalStatsPrefersUpcomingCounts(t *testing.T) {
	posts := []models.Post{{ID: "1", CreatedAt: at(5, 9)}}
	st := LocalStats(StatsInput{Posts: posts, Upcoming: [7]int{1, 0, 2}, AvgEngagement: 3.2}, now)
	assert.Equal(t, 3, st.PostsThisWeek)
	assert.Equal(t, 3.2, st.AvgEngagement)
}

func TestLocalStatsFallsBackToCampaignStore(t *testing.T) {
	campaigns := []models.Campaign{
		{ID: "1", BatchID: "b1", Status: "scheduled"},
		{ID: "2", BatchID: "b1", Status: "draft"},
		{ID: "3", CampaignName: "Launch", Status: "published"},
		{ID: "4"},
	}
	st := LocalStats(StatsInput{Campaigns: campaigns}, now)
	assert.Equal(t, 3, st.TotalCampaigns)
	assert.Equal(t, 2, st.ActiveCount)
	assert.Equal(t, 4, st.TotalPosts)
	assert.Equal(t, 0, st.PostsThisWeek)
}

func TestRecentActivity(t *testing.T) {
	campaigns := []models.Campaign{
		{ID: "1", CampaignName: "Old", CreatedAt: at(1, 0)},
		{ID: "2", ProductDescription: "Shoes", CreatedAt: at(5, 0)},
		{ID: "3", CreatedAt: at(3, 0)},
		{ID: "4", CampaignName: "Oldest", CreatedAt: at(1, 0)},
	}
	got := RecentActivity(campaigns, nil, 3, now)
	assert.Equal(t, []string{"Shoes", "Campaign created", "Old"}, texts(got))

	posts := []models.Post{
		{ID: "9", CampaignName: models.UntitledCampaign, CreatedAt: at(2, 0)},
		{ID: "8", CampaignName: "Sale", CreatedAt: at(4, 0)},
	}
	got = RecentActivity(nil, posts, 3, now)
	assert.Equal(t, []string{"Sale", "Campaign 9"}, texts(got))

	assert.Empty(t, RecentActivity(nil, nil, 3, now))
}

func texts(a []models.Activity) []string {
	out := make([]string, 0, len(a))
	for _, x := range a {
		out = append(out, x.Text)
	}
	return out
}
