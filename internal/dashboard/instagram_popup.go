package dashboard

import (
	"context"
	"time"

	"github.com/AngelCh415/socialdash/internal/aggregate"
	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/normalize"
	"github.com/AngelCh415/socialdash/internal/store"
)

type weeklyMedia struct {
	posts     []models.Post
	weekStart time.Time
}

type instagramPopup struct {
	view     *store.View
	media    *store.Slot[weeklyMedia]
	appPosts *store.Slot[[]models.Post]
}

func (v *View) instagram() *instagramPopup {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.insta == nil {
		sv := store.NewView(v.ID()+"/instagram", v.r.rec, v.r.now())
		if v.page.Closed() {
			sv.Close()
		}
		v.insta = &instagramPopup{
			view:     sv,
			media:    store.NewSlot(sv, "instagram_media", func(m weeklyMedia) bool { return len(m.posts) > 0 }),
			appPosts: store.NewSlot(sv, "instagram_app_posts", store.NonEmpty[models.Post]),
		}
	}
	return v.insta
}

type InstagramWeekly struct {
	ViewID         string                 `json:"view_id"`
	Window         models.WeekWindow      `json:"window"`
	DailyCounts    [7]int                 `json:"daily_counts"`
	CampaignCounts []models.CampaignCount `json:"campaign_counts"`
	Total          int                    `json:"total"`
	Empty          bool                   `json:"empty"`
	Media          []models.Post          `json:"media"`
	Slices         map[string]SliceState  `json:"slices"`
	Error          *models.APIError       `json:"error,omitempty"`
}

// LoadInstagramWeekly fetches the week's Instagram media and the app's own
// posts concurrently. Day counts come from the media; campaign counts come
// from app posts on Instagram in the local week.
func (v *View) LoadInstagramWeekly(ctx context.Context) InstagramWeekly {
	r := v.r
	p := v.instagram()
	r.loader.Load(ctx,
		ingest.Bind(p.media, func(ctx context.Context) (weeklyMedia, error) {
			res, err := r.api.FetchWeeklyInstagramPosts(ctx)
			if err != nil {
				return weeklyMedia{}, err
			}
			return weeklyMedia{posts: normalize.Posts(res.Posts, normalize.KindMedia), weekStart: res.WeekStart}, nil
		}),
		ingest.Bind(p.appPosts, func(ctx context.Context) ([]models.Post, error) {
			raws, err := r.api.FetchAllPosts(ctx, r.opts.WeeklyPostsLimit)
			if err != nil {
				return nil, err
			}
			return normalize.Posts(raws, normalize.KindPost), nil
		}),
	)
	return v.InstagramWeekly()
}

func (v *View) InstagramWeekly() InstagramWeekly {
	p := v.instagram()
	now := v.r.now()
	media := p.media.Get()

	byDay := aggregate.AggregateWeek(media.posts, media.weekStart, now)
	byCampaign := aggregate.AggregateWeek(p.appPosts.Get(), time.Time{}, now)

	var appTotal *int
	if p.appPosts.Ready() {
		n := byCampaign.InstagramInWindow
		appTotal = &n
	}
	out := InstagramWeekly{
		ViewID:         v.ID(),
		Window:         byDay.Window,
		DailyCounts:    byDay.DailyCounts,
		CampaignCounts: byCampaign.CampaignCounts,
		Total:          metrics.ReconcileTotal(byDay.TotalInWindow, appTotal),
		Empty:          byDay.Empty() && byCampaign.Empty(),
		Media:          media.posts,
		Slices: map[string]SliceState{
			p.media.Name():    sliceState(p.media),
			p.appPosts.Name(): sliceState(p.appPosts),
		},
	}
	if out.Media == nil {
		out.Media = []models.Post{}
	}
	if p.view.FirstLoadFailed() {
		out.Error = models.NewUpstreamUnavailableError()
	}
	return out
}
