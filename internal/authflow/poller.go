// Package authflow tracks provider connections. Authorization itself happens
// out of band in the user's browser; the poller only watches for completion.
package authflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
)

const (
	OutcomeConnected = "connected"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

type API interface {
	TriggerAuthorization(ctx context.Context, provider string) (string, error)
	SaveCredentials(ctx context.Context, provider string, creds map[string]string) error
	CheckAuthorizationStatus(ctx context.Context, provider string) (bool, error)
	Disconnect(ctx context.Context, provider string) error
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Poller struct {
	api      API
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	rec      metrics.Recorder
	now      func() time.Time

	mu     sync.Mutex
	status map[string]models.ConnectionStatus
	tasks  map[string]*task
	closed bool
}

func NewPoller(api API, interval, timeout time.Duration, log *slog.Logger, rec metrics.Recorder) *Poller {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Poller{
		api:      api,
		interval: interval,
		timeout:  timeout,
		log:      log,
		rec:      rec,
		now:      time.Now,
		status:   map[string]models.ConnectionStatus{},
		tasks:    map[string]*task{},
	}
}

// Connect starts the authorization flow and polls its status in the
// background until connected, timed out, cancelled or the poller closes.
// release runs exactly once when polling stops; it may be nil. Any earlier
// polling task for the same provider is cancelled first.
func (p *Poller) Connect(ctx context.Context, provider string, release func()) (string, error) {
	if !ingest.KnownProvider(provider) {
		return "", ingest.ErrUnknownProvider
	}
	authURL, err := p.api.TriggerAuthorization(ctx, provider)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if release != nil {
			release()
		}
		return authURL, nil
	}
	prev := p.tasks[provider]
	pctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	t := &task{cancel: cancel, done: make(chan struct{})}
	p.tasks[provider] = t
	st := p.status[provider]
	st.Provider = provider
	st.Polling = true
	p.status[provider] = st
	p.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}
	go p.poll(pctx, provider, t, release)
	return authURL, nil
}

func (p *Poller) poll(ctx context.Context, provider string, t *task, release func()) {
	outcome := OutcomeCancelled
	defer func() {
		t.cancel()
		p.mu.Lock()
		if p.tasks[provider] == t {
			delete(p.tasks, provider)
			st := p.status[provider]
			st.Polling = false
			p.status[provider] = st
		}
		p.mu.Unlock()
		p.rec.RecordAuthPoll(provider, outcome)
		p.log.Info("auth polling stopped", slog.String("provider", provider), slog.String("outcome", outcome))
		if release != nil {
			release()
		}
		close(t.done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				outcome = OutcomeTimeout
			}
			return
		case <-ticker.C:
			connected, err := p.api.CheckAuthorizationStatus(ctx, provider)
			if err != nil {
				p.log.Debug("auth status check failed", slog.String("provider", provider), slog.String("error", err.Error()))
				continue
			}
			if connected {
				p.setConnected(provider, true)
				outcome = OutcomeConnected
				return
			}
		}
	}
}

// Cancel stops polling for provider. It is a no-op when nothing is polling.
func (p *Poller) Cancel(provider string) {
	p.mu.Lock()
	t := p.tasks[provider]
	p.mu.Unlock()
	if t != nil {
		t.cancel()
		<-t.done
	}
}

// Close cancels every polling task and waits for them to finish.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	tasks := make([]*task, 0, len(p.tasks))
	for _, t := range p.tasks {
		tasks = append(tasks, t)
	}
	p.mu.Unlock()
	for _, t := range tasks {
		t.cancel()
		<-t.done
	}
}

func (p *Poller) setConnected(provider string, connected bool) {
	p.mu.Lock()
	st := p.status[provider]
	st.Provider = provider
	st.Connected = connected
	st.CheckedAt = p.now()
	p.status[provider] = st
	p.mu.Unlock()
}

func (p *Poller) Status(provider string) models.ConnectionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status[provider]
	st.Provider = provider
	return st
}

// Statuses lists the last known status of every provider.
func (p *Poller) Statuses() []models.ConnectionStatus {
	out := make([]models.ConnectionStatus, 0, len(ingest.Providers))
	for _, pr := range ingest.Providers {
		out = append(out, p.Status(pr))
	}
	return out
}

// Check asks the backend for one provider's status. On error the last known
// status is returned alongside it.
func (p *Poller) Check(ctx context.Context, provider string) (models.ConnectionStatus, error) {
	if !ingest.KnownProvider(provider) {
		return models.ConnectionStatus{}, ingest.ErrUnknownProvider
	}
	connected, err := p.api.CheckAuthorizationStatus(ctx, provider)
	if err != nil {
		return p.Status(provider), err
	}
	p.setConnected(provider, connected)
	return p.Status(provider), nil
}

// CheckAll refreshes every provider concurrently. Failed checks keep their
// last known status.
func (p *Poller) CheckAll(ctx context.Context) []models.ConnectionStatus {
	var g errgroup.Group
	for _, pr := range ingest.Providers {
		g.Go(func() error {
			if _, err := p.Check(ctx, pr); err != nil {
				p.log.Warn("connection status check failed", slog.String("provider", pr), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
	return p.Statuses()
}

// SaveCredentials connects a credential provider directly. Success marks it
// connected without polling.
func (p *Poller) SaveCredentials(ctx context.Context, provider string, creds map[string]string) error {
	if !ingest.KnownProvider(provider) {
		return ingest.ErrUnknownProvider
	}
	p.Cancel(provider)
	if err := p.api.SaveCredentials(ctx, provider, creds); err != nil {
		return err
	}
	p.setConnected(provider, true)
	p.log.Info("provider connected with credentials", slog.String("provider", provider))
	return nil
}

func (p *Poller) Disconnect(ctx context.Context, provider string) error {
	if !ingest.KnownProvider(provider) {
		return ingest.ErrUnknownProvider
	}
	p.Cancel(provider)
	if err := p.api.Disconnect(ctx, provider); err != nil {
		return err
	}
	p.setConnected(provider, false)
	return nil
}
