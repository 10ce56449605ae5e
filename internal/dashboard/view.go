package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/AngelCh415/socialdash/internal/aggregate"
	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/normalize"
	"github.com/AngelCh415/socialdash/internal/store"
	"github.com/AngelCh415/socialdash/internal/trending"
	"github.com/AngelCh415/socialdash/internal/week"
)

const recentActivityLen = 3

// View is one mounted dashboard page. The page slots belong to the page itself;
// the Instagram and trending popups get their own child views so each can
// report its own first-load failure and be remounted independently.
type View struct {
	r    *Registry
	page *store.View

	calendar  *store.Slot[[]models.Post]
	scheduled *store.Slot[[]models.Post]
	allPosts  *store.Slot[[]models.Post]
	overview  *store.Slot[*models.PartialStats]

	mu    sync.Mutex
	insta *instagramPopup
	trend *trendingPopup
}

func newView(r *Registry, id string) *View {
	page := store.NewView(id, r.rec, r.now())
	return &View{
		r:         r,
		page:      page,
		calendar:  store.NewSlot(page, "calendar_events", store.NonEmpty[models.Post]),
		scheduled: store.NewSlot(page, "scheduled_posts", store.NonEmpty[models.Post]),
		allPosts:  store.NewSlot(page, "all_posts", store.NonEmpty[models.Post]),
		overview:  store.NewSlot(page, "analytics_overview", store.NotNil[models.PartialStats]),
	}
}

func (v *View) ID() string { return v.page.ID() }

func (v *View) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Close()
	if v.insta != nil {
		v.insta.view.Close()
	}
	if v.trend != nil {
		v.trend.view.Close()
	}
}

// SliceState reports one slot for the UI's loading indicators.
type SliceState struct {
	State     string     `json:"state"`
	Ready     bool       `json:"ready"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

func sliceState[T any](s *store.Slot[T]) SliceState {
	snap := s.Snapshot()
	out := SliceState{State: snap.State.String(), Ready: snap.Ready}
	if !snap.UpdatedAt.IsZero() {
		t := snap.UpdatedAt
		out.UpdatedAt = &t
	}
	if snap.LastErr != nil {
		out.LastError = snap.LastErr.Error()
	}
	return out
}

type Summary struct {
	ViewID         string                `json:"view_id"`
	Stats          models.AggregateStats `json:"stats"`
	LocalStats     models.AggregateStats `json:"local_stats"`
	UpcomingDays   []time.Time           `json:"upcoming_days"`
	Upcoming       [7]int                `json:"upcoming_counts"`
	RecentActivity []models.Activity     `json:"recent_activity"`
	TrendingChips  []string              `json:"trending_chips"`
	Slices         map[string]SliceState `json:"slices"`
	Error          *models.APIError      `json:"error,omitempty"`
}

// Load refreshes the campaign store and fetches every page slice concurrently,
// then returns the resulting summary.
func (v *View) Load(ctx context.Context) Summary {
	r := v.r
	r.loader.Load(ctx,
		ingest.Task("campaigns", r.campaigns.Refresh),
		ingest.Bind(v.calendar, func(ctx context.Context) ([]models.Post, error) {
			raws, err := r.api.FetchCalendarEvents(ctx)
			if err != nil {
				return nil, err
			}
			return normalize.Posts(raws, normalize.KindCalendarEvent), nil
		}),
		ingest.Bind(v.scheduled, func(ctx context.Context) ([]models.Post, error) {
			raws, err := r.api.FetchScheduledPosts(ctx)
			if err != nil {
				return nil, err
			}
			return normalize.Posts(raws, normalize.KindScheduled), nil
		}),
		ingest.Bind(v.allPosts, func(ctx context.Context) ([]models.Post, error) {
			raws, err := r.api.FetchAllPosts(ctx, r.opts.AllPostsLimit)
			if err != nil {
				return nil, err
			}
			return normalize.Posts(raws, normalize.KindPost), nil
		}),
		ingest.Bind(v.overview, r.api.FetchAnalyticsOverview),
	)
	return v.Summary()
}

// Summary derives the page model from whatever the slots hold now.
func (v *View) Summary() Summary {
	r := v.r
	now := r.now()
	campaigns := r.campaigns.Campaigns()
	posts := v.allPosts.Get()

	source := aggregate.ScheduledSource(v.scheduled.Get(), v.calendar.Get(), posts)
	upcoming := aggregate.UpcomingCounts(source, now)
	local := aggregate.LocalStats(aggregate.StatsInput{
		Posts:         posts,
		Campaigns:     campaigns,
		Upcoming:      upcoming,
		AvgEngagement: r.opts.DefaultAvgEngagement,
	}, now)

	out := Summary{
		ViewID:         v.ID(),
		Stats:          metrics.ProjectStats(local, v.overview.Get()),
		LocalStats:     local,
		UpcomingDays:   week.Dates(week.Midnight(now), week.Days),
		Upcoming:       upcoming,
		RecentActivity: aggregate.RecentActivity(campaigns, posts, recentActivityLen, now),
		TrendingChips:  trending.Chips,
		Slices: map[string]SliceState{
			v.calendar.Name():  sliceState(v.calendar),
			v.scheduled.Name(): sliceState(v.scheduled),
			v.allPosts.Name():  sliceState(v.allPosts),
			v.overview.Name():  sliceState(v.overview),
		},
	}
	if v.page.FirstLoadFailed() && len(campaigns) == 0 {
		out.Error = models.NewUpstreamUnavailableError()
	}
	return out
}
