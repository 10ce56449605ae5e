// Package dashboard owns the server-side views the dashboard UI mounts. Each
// view holds stale-safe merge slots that survive failed reloads and stop
// accepting writes once the view is closed.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/store"
	"github.com/AngelCh415/socialdash/internal/trending"
)

// API is the part of the backend client the views read from.
type API interface {
	FetchCalendarEvents(ctx context.Context) ([]models.RawRecord, error)
	FetchScheduledPosts(ctx context.Context) ([]models.RawRecord, error)
	FetchAllPosts(ctx context.Context, limit int) ([]models.RawRecord, error)
	FetchAnalyticsOverview(ctx context.Context) (*models.PartialStats, error)
	FetchWeeklyInstagramPosts(ctx context.Context) (ingest.WeeklyMedia, error)
	trending.API
}

type Options struct {
	IdleTTL              time.Duration
	AllPostsLimit        int
	WeeklyPostsLimit     int
	DefaultAvgEngagement float64
}

type Registry struct {
	api       API
	campaigns store.CampaignReader
	trending  *trending.Service
	loader    *ingest.Loader
	opts      Options
	log       *slog.Logger
	rec       metrics.Recorder
	now       func() time.Time

	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry(api API, campaigns store.CampaignReader, opts Options, log *slog.Logger, rec metrics.Recorder) *Registry {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Registry{
		api:       api,
		campaigns: campaigns,
		trending:  trending.NewService(api),
		loader:    ingest.NewLoader(log, rec),
		opts:      opts,
		log:       log,
		rec:       rec,
		now:       time.Now,
		views:     map[string]*View{},
	}
}

// Open mounts a new view.
func (r *Registry) Open() *View {
	v := newView(r, uuid.NewString())
	r.mu.Lock()
	r.views[v.ID()] = v
	n := len(r.views)
	r.mu.Unlock()
	r.rec.SetActiveViews(n)
	r.log.Debug("view opened", slog.String("view", v.ID()))
	return v
}

// Get looks a view up and marks it as used.
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	v, ok := r.views[id]
	r.mu.Unlock()
	if ok {
		v.page.Touch(r.now())
	}
	return v, ok
}

// CloseView unmounts a view. In-flight fetches finish but their results are
// discarded.
func (r *Registry) CloseView(id string) bool {
	r.mu.Lock()
	v, ok := r.views[id]
	delete(r.views, id)
	n := len(r.views)
	r.mu.Unlock()
	if !ok {
		return false
	}
	v.close()
	r.rec.SetActiveViews(n)
	r.log.Debug("view closed", slog.String("view", id))
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep closes views idle for longer than the TTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	var idle []string
	for id, v := range r.views {
		if now.Sub(v.page.IdleSince()) > r.opts.IdleTTL {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()
	for _, id := range idle {
		r.CloseView(id)
	}
	return len(idle)
}

// Run sweeps idle views and tracks campaign store refreshes until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	every := r.opts.IdleTTL / 2
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	refreshed, unsubscribe := r.campaigns.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshed:
			n := len(r.campaigns.Campaigns())
			r.rec.SetCampaigns(n)
			r.log.Debug("campaigns refreshed", slog.Int("count", n))
		case <-t.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.log.Info("expired idle views", slog.Int("count", n))
			}
		}
	}
}

// Close unmounts every view.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.CloseView(id)
	}
}

// RefreshTopics regenerates trending topics and returns the fresh list for the
// category the name maps to.
func (r *Registry) RefreshTopics(ctx context.Context, name string) ([]string, error) {
	return r.trending.Refresh(ctx, trending.MapCategory(name))
}
