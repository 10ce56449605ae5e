package store

import (
	"sync"
	"sync/atomic"
	"time"
)

// State of one merge slice. A slice is Loading between Begin and Commit/Fail
// and Idle otherwise; a new cycle may Begin from any state.
type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Outcome of a Commit or Fail call.
type Outcome int

const (
	Merged    Outcome = iota // new value replaced the prior one
	Kept                     // prior value kept (failure or unusable value)
	Discarded                // view already closed, nothing written
)

// DiscardObserver is told about writes dropped after Close.
type DiscardObserver interface {
	RecordDiscard(slice string)
}

type slotStatus interface {
	hasValue() bool
	lastFailed() bool
	lock()
	unlock()
}

// View owns the merge slices of one mounted view. Closing it makes every later
// commit a no-op.
type View struct {
	id     string
	closed atomic.Bool
	obs    DiscardObserver

	mu        sync.Mutex
	lastTouch time.Time
	slots     []slotStatus
}

func NewView(id string, obs DiscardObserver, now time.Time) *View {
	return &View{id: id, obs: obs, lastTouch: now}
}

func (v *View) ID() string   { return v.id }
func (v *View) Closed() bool { return v.closed.Load() }

// Close marks the view closed while holding every slot's lock, so a write is
// either finished before Close returns or discarded.
func (v *View) Close() {
	v.mu.Lock()
	slots := append([]slotStatus(nil), v.slots...)
	v.mu.Unlock()
	for _, s := range slots {
		s.lock()
	}
	v.closed.Store(true)
	for _, s := range slots {
		s.unlock()
	}
}

func (v *View) Touch(now time.Time) {
	v.mu.Lock()
	v.lastTouch = now
	v.mu.Unlock()
}

func (v *View) IdleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastTouch
}

// FirstLoadFailed is true when no slice holds a value and every slice's last
// load failed. Only then should the caller show a connection error.
func (v *View) FirstLoadFailed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.slots) == 0 {
		return false
	}
	for _, s := range v.slots {
		if s.hasValue() || !s.lastFailed() {
			return false
		}
	}
	return true
}

func (v *View) register(s slotStatus) {
	v.mu.Lock()
	v.slots = append(v.slots, s)
	v.mu.Unlock()
}

func (v *View) discard(name string) Outcome {
	if v.obs != nil {
		v.obs.RecordDiscard(name)
	}
	return Discarded
}

// Slot is one independently fetched piece of view state. A new value replaces
// the prior one only if usable reports true for it; otherwise the prior stays.
type Slot[T any] struct {
	view   *View
	name   string
	usable func(T) bool

	mu        sync.RWMutex
	value     T
	state     State
	lastErr   error
	failed    bool
	ready     bool
	updatedAt time.Time
}

func NewSlot[T any](v *View, name string, usable func(T) bool) *Slot[T] {
	s := &Slot[T]{view: v, name: name, usable: usable}
	v.register(s)
	return s
}

func (s *Slot[T]) Name() string { return s.name }

// Begin enters Loading. It returns false if the view is closed.
func (s *Slot[T]) Begin() bool {
	if s.view.Closed() {
		return false
	}
	s.mu.Lock()
	s.state = Loading
	s.mu.Unlock()
	return true
}

func (s *Slot[T]) Commit(val T) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Closed() {
		return s.view.discard(s.name)
	}
	s.state = Idle
	s.failed = false
	s.lastErr = nil
	if !s.usable(val) {
		return Kept
	}
	s.value = val
	s.ready = true
	s.updatedAt = time.Now()
	return Merged
}

func (s *Slot[T]) Fail(err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Closed() {
		return s.view.discard(s.name)
	}
	s.state = Idle
	s.failed = true
	s.lastErr = err
	return Kept
}

func (s *Slot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Ready reports whether the slot has ever merged a usable value.
func (s *Slot[T]) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type Snapshot[T any] struct {
	Value     T
	State     State
	Ready     bool
	LastErr   error
	UpdatedAt time.Time
}

func (s *Slot[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[T]{Value: s.value, State: s.state, Ready: s.ready, LastErr: s.lastErr, UpdatedAt: s.updatedAt}
}

func (s *Slot[T]) hasValue() bool { return s.Ready() }
func (s *Slot[T]) lock()          { s.mu.Lock() }
func (s *Slot[T]) unlock()        { s.mu.Unlock() }

func (s *Slot[T]) lastFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed
}

func NonEmpty[E any](v []E) bool { return len(v) > 0 }

func NotNil[P any](p *P) bool { return p != nil }
