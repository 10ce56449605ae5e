package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/store"
)

var errViewClosed = errors.New("view closed")

// Fetch is one unit of a load cycle. It fetches, normalizes and commits into
// one slot, or into two when a second request depends on the first.
type Fetch struct {
	name string
	run  func(ctx context.Context, l *Loader)
}

func (f Fetch) Name() string { return f.name }

// Bind fetches into a single slot.
func Bind[T any](s *store.Slot[T], fn func(context.Context) (T, error)) Fetch {
	return Fetch{name: s.Name(), run: func(ctx context.Context, l *Loader) {
		_, _ = apply(ctx, l, s, fn)
	}}
}

// Then runs next only after first succeeded, feeding it the fetched value.
// When first fails, next is marked failed with the same error.
func Then[T, U any](
	first *store.Slot[T], fetchFirst func(context.Context) (T, error),
	next *store.Slot[U], fetchNext func(context.Context, T) (U, error),
) Fetch {
	return Fetch{name: first.Name() + "+" + next.Name(), run: func(ctx context.Context, l *Loader) {
		v, err := apply(ctx, l, first, fetchFirst)
		if err != nil {
			if next.Begin() {
				l.report(next.Name(), next.Fail(err))
			}
			return
		}
		_, _ = apply(ctx, l, next, func(ctx context.Context) (U, error) { return fetchNext(ctx, v) })
	}}
}

// Task runs fn as part of the cycle without a slot of its own, for refreshes
// of state that lives outside the view. Failures are logged and counted.
func Task(name string, fn func(context.Context) error) Fetch {
	return Fetch{name: name, run: func(ctx context.Context, l *Loader) {
		start := time.Now()
		err := fn(ctx)
		l.rec.RecordFetch(name, err, time.Since(start))
		if err != nil {
			l.log.Warn("fetch failed",
				slog.String("slice", name),
				slog.String("error", err.Error()))
		}
	}}
}

// Loader runs the fetches of a cycle concurrently. A failed fetch is logged,
// counted and leaves its slot's prior value alone; it never cancels the rest.
type Loader struct {
	log *slog.Logger
	rec metrics.Recorder
}

func NewLoader(log *slog.Logger, rec metrics.Recorder) *Loader {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Loader{log: log, rec: rec}
}

func (l *Loader) Load(ctx context.Context, fetches ...Fetch) {
	var g errgroup.Group
	for _, f := range fetches {
		g.Go(func() error {
			f.run(ctx, l)
			return nil
		})
	}
	_ = g.Wait()
}

func apply[T any](ctx context.Context, l *Loader, s *store.Slot[T], fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !s.Begin() {
		return zero, errViewClosed
	}
	start := time.Now()
	v, err := fn(ctx)
	l.rec.RecordFetch(s.Name(), err, time.Since(start))
	if err != nil {
		l.log.Warn("fetch failed",
			slog.String("slice", s.Name()),
			slog.String("error", err.Error()))
		l.report(s.Name(), s.Fail(err))
		return zero, err
	}
	l.report(s.Name(), s.Commit(v))
	return v, nil
}

func (l *Loader) report(slice string, o store.Outcome) {
	if o == store.Discarded {
		l.log.Debug("write discarded after close", slog.String("slice", slice))
	}
}
