package dashboard

import (
	"context"

	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/store"
	"github.com/AngelCh415/socialdash/internal/trending"
)

type trendingPopup struct {
	view     *store.View
	topic    string
	category string
	topics   *store.Slot[[]string]
	details  *store.Slot[models.TopicDetails]
}

func usableDetails(d models.TopicDetails) bool {
	return d.Overview != "" || len(d.KeyPoints) > 0 || len(d.RelatedTopics) > 0
}

// trendingFor returns the popup for topic and category. Asking for a different
// pair unmounts the old popup first.
func (v *View) trendingFor(topic, category string) *trendingPopup {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.trend != nil && v.trend.topic == topic && v.trend.category == category {
		return v.trend
	}
	if v.trend != nil {
		v.trend.view.Close()
	}
	sv := store.NewView(v.ID()+"/trending", v.r.rec, v.r.now())
	if v.page.Closed() {
		sv.Close()
	}
	v.trend = &trendingPopup{
		view:     sv,
		topic:    topic,
		category: category,
		topics:   store.NewSlot(sv, "trending_topics", store.NonEmpty[string]),
		details:  store.NewSlot(sv, "topic_details", usableDetails),
	}
	return v.trend
}

type TrendingTopics struct {
	ViewID   string                `json:"view_id"`
	Topic    string                `json:"topic"`
	Category string                `json:"category"`
	Topics   []string              `json:"topics"`
	Details  models.TopicDetails   `json:"details"`
	Prefill  string                `json:"prefill_description"`
	Slices   map[string]SliceState `json:"slices"`
	Error    *models.APIError      `json:"error,omitempty"`
}

// LoadTrending fetches the topic list and details. Without a topic the details
// follow the first listed topic, so that fetch waits for the list.
func (v *View) LoadTrending(ctx context.Context, topic, category string) TrendingTopics {
	svc := v.r.trending
	cat := trending.CategoryFor(topic, category)
	p := v.trendingFor(topic, category)
	listTopics := func(ctx context.Context) ([]string, error) { return svc.Topics(ctx, cat) }

	if topic == "" {
		v.r.loader.Load(ctx, ingest.Then(
			p.topics, listTopics,
			p.details, func(ctx context.Context, list []string) (models.TopicDetails, error) {
				if len(list) == 0 {
					return models.TopicDetails{}, nil
				}
				return svc.Details(ctx, list[0], cat)
			},
		))
	} else {
		v.r.loader.Load(ctx,
			ingest.Bind(p.topics, listTopics),
			ingest.Bind(p.details, func(ctx context.Context) (models.TopicDetails, error) {
				return svc.Details(ctx, topic, cat)
			}),
		)
	}
	return v.trendingSummary(p, cat)
}

func (v *View) trendingSummary(p *trendingPopup, cat string) TrendingTopics {
	topics := p.topics.Get()
	if topics == nil {
		topics = []string{}
	}
	subject := p.topic
	if subject == "" && len(topics) > 0 {
		subject = topics[0]
	}
	details := p.details.Get()
	out := TrendingTopics{
		ViewID:   v.ID(),
		Topic:    subject,
		Category: cat,
		Topics:   topics,
		Details:  details,
		Slices: map[string]SliceState{
			p.topics.Name():  sliceState(p.topics),
			p.details.Name(): sliceState(p.details),
		},
	}
	if subject != "" {
		out.Prefill = trending.PrefillDescription(subject, details)
	}
	if p.view.FirstLoadFailed() {
		out.Error = models.NewUpstreamUnavailableError()
	}
	return out
}
