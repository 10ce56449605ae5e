package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/store"
)

type fetchLog struct {
	metrics.Nop
	mu  sync.Mutex
	got map[string]bool // slice -> failed
}

func (f *fetchLog) RecordFetch(slice string, err error, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.got == nil {
		f.got = map[string]bool{}
	}
	f.got[slice] = err != nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoadOneFailureDoesNotAbortOthers(t *testing.T) {
	rec := &fetchLog{}
	l := NewLoader(quietLogger(), rec)
	v := store.NewView("v", nil, time.Now())
	posts := store.NewSlot(v, "posts", store.NonEmpty[models.Post])
	events := store.NewSlot(v, "events", store.NonEmpty[models.Post])
	posts.Commit([]models.Post{{ID: "old"}})

	l.Load(context.Background(),
		Bind(posts, func(context.Context) ([]models.Post, error) {
			return nil, errors.New("timeout")
		}),
		Bind(events, func(context.Context) ([]models.Post, error) {
			return []models.Post{{ID: "e1"}}, nil
		}),
	)

	assert.Equal(t, "old", posts.Get()[0].ID, "failure keeps prior value")
	assert.Equal(t, "e1", events.Get()[0].ID)
	assert.Equal(t, map[string]bool{"posts": true, "events": false}, rec.got)
	assert.False(t, v.FirstLoadFailed())
}

func TestLoadRunsConcurrently(t *testing.T) {
	l := NewLoader(quietLogger(), nil)
	v := store.NewView("v", nil, time.Now())
	a := store.NewSlot(v, "a", func(int) bool { return true })
	b := store.NewSlot(v, "b", func(int) bool { return true })

	// each fetch waits for the other to start
	var wg sync.WaitGroup
	wg.Add(2)
	wait := func(n int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			wg.Done()
			wg.Wait()
			return n, nil
		}
	}
	done := make(chan struct{})
	go func() {
		l.Load(context.Background(), Bind(a, wait(1)), Bind(b, wait(2)))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not run concurrently")
	}
	assert.Equal(t, 1, a.Get())
	assert.Equal(t, 2, b.Get())
}

func TestLoadAfterCloseDiscards(t *testing.T) {
	obs := &discards{}
	l := NewLoader(quietLogger(), nil)
	v := store.NewView("v", obs, time.Now())
	s := store.NewSlot(v, "posts", store.NonEmpty[models.Post])

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		<-started
		v.Close()
		close(release)
	}()
	l.Load(context.Background(), Bind(s, func(context.Context) ([]models.Post, error) {
		close(started)
		<-release
		return []models.Post{{ID: "late"}}, nil
	}))

	assert.Empty(t, s.Get())
	assert.Equal(t, []string{"posts"}, obs.names)

	// a closed view does not even start new cycles
	called := false
	l.Load(context.Background(), Bind(s, func(context.Context) ([]models.Post, error) {
		called = true
		return nil, nil
	}))
	assert.False(t, called)
}

type discards struct {
	mu    sync.Mutex
	names []string
}

func (d *discards) RecordDiscard(slice string) {
	d.mu.Lock()
	d.names = append(d.names, slice)
	d.mu.Unlock()
}

func TestThenRunsDependentFetchAfterFirst(t *testing.T) {
	l := NewLoader(quietLogger(), nil)
	v := store.NewView("v", nil, time.Now())
	topics := store.NewSlot(v, "topics", store.NonEmpty[string])
	details := store.NewSlot(v, "details", func(d models.TopicDetails) bool { return d.Overview != "" })

	l.Load(context.Background(), Then(
		topics, func(context.Context) ([]string, error) { return []string{"AI", "Bots"}, nil },
		details, func(_ context.Context, ts []string) (models.TopicDetails, error) {
			return models.TopicDetails{Overview: ts[0] + " overview"}, nil
		},
	))
	assert.Equal(t, "AI overview", details.Get().Overview)

	nextCalled := false
	l.Load(context.Background(), Then(
		topics, func(context.Context) ([]string, error) { return nil, errors.New("down") },
		details, func(context.Context, []string) (models.TopicDetails, error) {
			nextCalled = true
			return models.TopicDetails{}, nil
		},
	))
	assert.False(t, nextCalled)
	require.Equal(t, []string{"AI", "Bots"}, topics.Get())
	assert.Equal(t, "AI overview", details.Get().Overview)
	assert.EqualError(t, details.Snapshot().LastErr, "down")
}

func TestTaskRunsAlongsideSlotFetches(t *testing.T) {
	rec := &fetchLog{}
	l := NewLoader(quietLogger(), rec)
	v := store.NewView("v", nil, time.Now())
	posts := store.NewSlot(v, "posts", store.NonEmpty[models.Post])

	postsStarted := make(chan struct{})
	l.Load(context.Background(),
		Task("campaigns", func(ctx context.Context) error {
			select {
			case <-postsStarted:
			case <-time.After(time.Second):
				return nil
			}
			return errors.New("campaigns down")
		}),
		Bind(posts, func(context.Context) ([]models.Post, error) {
			close(postsStarted)
			return []models.Post{{ID: "1"}}, nil
		}),
	)

	assert.Len(t, posts.Get(), 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, map[string]bool{"campaigns": true, "posts": false}, rec.got)
}
