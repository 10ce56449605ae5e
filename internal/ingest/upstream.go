package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AngelCh415/socialdash/internal/config"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/normalize"
	"github.com/AngelCh415/socialdash/internal/utils"
)

// ErrUnsuccessful is a 2xx response carrying success=false.
var ErrUnsuccessful = errors.New("upstream reported success=false")

var ErrUnknownProvider = errors.New("unknown provider")

// ErrConnectFlow means the provider connects through the other flow: OAuth
// providers have no credentials form and credential providers return no
// auth_url.
var ErrConnectFlow = errors.New("provider does not support this connect flow")

// Providers that support connection status checks.
var Providers = []string{"google", "facebook", "instagram", "twitter", "reddit"}

// credentialProviders connect with a posted credentials form instead of OAuth.
var credentialProviders = map[string]bool{"instagram": true, "twitter": true}

func KnownProvider(p string) bool {
	for _, k := range Providers {
		if k == p {
			return true
		}
	}
	return false
}

// UsesCredentials reports whether p connects with saved credentials.
func UsesCredentials(p string) bool { return credentialProviders[p] }

// Client talks to the social media backend API.
type Client struct {
	base string
	r    requester
}

func NewClient(c HTTPClient, cfg config.Config) *Client {
	var lim *rate.Limiter
	if cfg.UpstreamRPS > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst)
	}
	return &Client{
		base: strings.TrimRight(cfg.UpstreamURL, "/"),
		r: requester{
			c:       c,
			limiter: lim,
			backoff: utils.NewBackoff(100*time.Millisecond, cfg.UpstreamRetries),
			token:   cfg.UpstreamToken,
		},
	}
}

func (c *Client) url(path string) string { return c.base + path }

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (e envelope) check() error {
	if e.Success != nil && !*e.Success {
		if e.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, e.Error)
		}
		return ErrUnsuccessful
	}
	return nil
}

type WeeklyMedia struct {
	Posts     []models.RawRecord
	WeekStart time.Time // zero when the backend did not send one
}

func (c *Client) FetchWeeklyInstagramPosts(ctx context.Context) (WeeklyMedia, error) {
	var resp struct {
		envelope
		Posts     []models.RawRecord `json:"posts"`
		WeekStart string             `json:"week_start"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/instagram/weekly-posts"), nil, &resp); err != nil {
		return WeeklyMedia{}, err
	}
	if err := resp.check(); err != nil {
		return WeeklyMedia{}, err
	}
	out := WeeklyMedia{Posts: resp.Posts}
	if t, ok := normalize.ParseTime(resp.WeekStart); ok {
		out.WeekStart = t
	}
	return out, nil
}

func (c *Client) FetchAllPosts(ctx context.Context, limit int) ([]models.RawRecord, error) {
	var resp struct {
		envelope
		Posts []models.RawRecord `json:"posts"`
	}
	u := c.url("/api/posts?limit=" + strconv.Itoa(limit))
	if err := c.r.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, resp.check()
}

func (c *Client) FetchScheduledPosts(ctx context.Context) ([]models.RawRecord, error) {
	var resp struct {
		envelope
		ScheduledPosts []models.RawRecord `json:"scheduled_posts"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/scheduled-posts"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ScheduledPosts, resp.check()
}

func (c *Client) FetchCalendarEvents(ctx context.Context) ([]models.RawRecord, error) {
	var resp struct {
		envelope
		Events []models.RawRecord `json:"events"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/calendar/events"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, resp.check()
}

func (c *Client) FetchCampaigns(ctx context.Context) ([]models.RawRecord, error) {
	var resp struct {
		envelope
		Campaigns []models.RawRecord `json:"campaigns"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/campaigns"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, resp.check()
}

// FetchAnalyticsOverview returns the backend statistics summary. A nil result
// with nil error means the backend sent no statistics.
func (c *Client) FetchAnalyticsOverview(ctx context.Context) (*models.PartialStats, error) {
	var resp struct {
		envelope
		Statistics *models.PartialStats `json:"statistics"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/dashboard/statistics"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Statistics, resp.check()
}

// FetchTrendingTopics returns the topic lists keyed by category.
func (c *Client) FetchTrendingTopics(ctx context.Context, category string) (map[string][]string, error) {
	var resp struct {
		Topics map[string][]string `json:"topics"`
	}
	u := c.url("/api/trending/ai-topics?category=" + url.QueryEscape(category))
	if err := c.r.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Topics == nil {
		resp.Topics = map[string][]string{}
	}
	return resp.Topics, nil
}

func (c *Client) FetchTopicDetails(ctx context.Context, topic, category string) (models.RawRecord, error) {
	var resp struct {
		envelope
		Details models.RawRecord `json:"details"`
	}
	body := map[string]string{"topic": topic, "category": category}
	if err := c.r.do(ctx, http.MethodPost, c.url("/social-media/trending/topic-details"), body, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(); err != nil {
		return nil, err
	}
	if resp.Details == nil {
		resp.Details = models.RawRecord{}
	}
	return resp.Details, nil
}

func (c *Client) RefreshTrendingTopics(ctx context.Context) error {
	return c.r.do(ctx, http.MethodPost, c.url("/api/trending/refresh"), nil, nil)
}

func (c *Client) FetchUsageStats(ctx context.Context) (map[string]models.ServiceUsage, error) {
	var resp struct {
		envelope
		Usage map[string]models.ServiceUsage `json:"usage"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url("/api/usage-stats"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Usage, resp.check()
}

// TriggerAuthorization starts the out-of-band authorization flow and returns
// the URL the user has to visit. Completion is only observable by polling
// CheckAuthorizationStatus. Each call may open a new flow upstream, so it is
// never retried.
func (c *Client) TriggerAuthorization(ctx context.Context, provider string) (string, error) {
	if !KnownProvider(provider) {
		return "", ErrUnknownProvider
	}
	if UsesCredentials(provider) {
		return "", fmt.Errorf("%s: %w", provider, ErrConnectFlow)
	}
	if provider == "google" {
		return c.url("/google/connect"), nil
	}
	var resp struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.r.once(ctx, http.MethodPost, c.url("/social-media/"+provider+"/connect"), map[string]string{}, &resp); err != nil {
		return "", err
	}
	if resp.AuthURL == "" {
		return "", fmt.Errorf("%s: empty auth_url", provider)
	}
	return resp.AuthURL, nil
}

// SaveCredentials connects a credential provider by posting its credentials.
// The backend must answer success=true. Not retried.
func (c *Client) SaveCredentials(ctx context.Context, provider string, creds map[string]string) error {
	if !KnownProvider(provider) {
		return ErrUnknownProvider
	}
	if !UsesCredentials(provider) {
		return fmt.Errorf("%s: %w", provider, ErrConnectFlow)
	}
	if creds == nil {
		creds = map[string]string{}
	}
	var resp envelope
	if err := c.r.once(ctx, http.MethodPost, c.url("/social-media/"+provider+"/connect"), creds, &resp); err != nil {
		return err
	}
	if resp.Success == nil {
		return fmt.Errorf("%s: %w", provider, ErrUnsuccessful)
	}
	return resp.check()
}

func (c *Client) CheckAuthorizationStatus(ctx context.Context, provider string) (bool, error) {
	if !KnownProvider(provider) {
		return false, ErrUnknownProvider
	}
	var resp struct {
		Connected bool `json:"connected"`
	}
	if err := c.r.do(ctx, http.MethodGet, c.url(statusPath(provider)), nil, &resp); err != nil {
		return false, err
	}
	return resp.Connected, nil
}

func (c *Client) Disconnect(ctx context.Context, provider string) error {
	if !KnownProvider(provider) {
		return ErrUnknownProvider
	}
	p := "/social-media/" + provider + "/disconnect"
	if provider == "google" {
		p = "/google/disconnect"
	}
	return c.r.do(ctx, http.MethodPost, c.url(p), nil, nil)
}

// DeleteAccount is destructive and never retried.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.r.once(ctx, http.MethodDelete, c.url("/api/auth/account"), nil, nil)
}

func statusPath(provider string) string {
	if provider == "google" {
		return "/google/status"
	}
	return "/social-media/" + provider + "/status"
}

// LoadCampaigns fetches and normalizes the campaign list; it is the loader
// behind the process-wide campaign store.
func (c *Client) LoadCampaigns(ctx context.Context) ([]models.Campaign, error) {
	raws, err := c.FetchCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.Campaigns(raws), nil
}
