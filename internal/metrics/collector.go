package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the loader, view registry and auth poller report to.
type Recorder interface {
	RecordFetch(slice string, err error, latency time.Duration)
	RecordDiscard(slice string)
	RecordAuthPoll(provider, outcome string)
	SetActiveViews(n int)
	SetCampaigns(n int)
}

type Collector struct {
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	discarded    *prometheus.CounterVec
	authPolls    *prometheus.CounterVec
	activeViews  prometheus.Gauge
	campaigns    prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdash_fetch_total",
			Help: "Upstream fetches per merge slice and outcome.",
		}, []string{"slice", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialdash_fetch_latency_seconds",
			Help:    "Upstream fetch latency per merge slice.",
			Buckets: prometheus.DefBuckets,
		}, []string{"slice"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdash_discarded_writes_total",
			Help: "Slice commits dropped because the view was closed.",
		}, []string{"slice"}),
		authPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdash_auth_polls_total",
			Help: "Finished authorization polling tasks per provider and outcome.",
		}, []string{"provider", "outcome"}),
		activeViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialdash_active_views",
			Help: "Open dashboard views.",
		}),
		campaigns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialdash_campaigns",
			Help: "Campaigns held by the shared campaign store after the last refresh.",
		}),
	}
	reg.MustRegister(c.fetches, c.fetchLatency, c.discarded, c.authPolls, c.activeViews, c.campaigns)
	return c
}

func (c *Collector) RecordFetch(slice string, err error, latency time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.fetches.WithLabelValues(slice, outcome).Inc()
	c.fetchLatency.WithLabelValues(slice).Observe(latency.Seconds())
}

func (c *Collector) RecordDiscard(slice string) { c.discarded.WithLabelValues(slice).Inc() }

func (c *Collector) RecordAuthPoll(provider, outcome string) {
	c.authPolls.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) SetActiveViews(n int) { c.activeViews.Set(float64(n)) }

func (c *Collector) SetCampaigns(n int) { c.campaigns.Set(float64(n)) }

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything; used when metrics are not wired.
type Nop struct{}

func (Nop) RecordFetch(string, error, time.Duration) {}
func (Nop) RecordDiscard(string)                     {}
func (Nop) RecordAuthPoll(string, string)            {}
func (Nop) SetActiveViews(int)                       {}
func (Nop) SetCampaigns(int)                         {}
