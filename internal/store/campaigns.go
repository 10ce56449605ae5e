package store

import (
	"context"
	"sync"

	"github.com/AngelCh415/socialdash/internal/models"
)

// CampaignReader is the read side of the process-wide campaign list. Consumers
// never mutate it; they may only ask it to refresh.
type CampaignReader interface {
	Campaigns() []models.Campaign
	Refresh(ctx context.Context) error
	Subscribe() (<-chan struct{}, func())
}

type CampaignLoader func(ctx context.Context) ([]models.Campaign, error)

type CampaignStore struct {
	load CampaignLoader

	mu      sync.RWMutex
	items   []models.Campaign
	subs    map[int]chan struct{}
	nextSub int
}

func NewCampaignStore(load CampaignLoader) *CampaignStore {
	return &CampaignStore{load: load, subs: make(map[int]chan struct{})}
}

func (s *CampaignStore) Campaigns() []models.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Campaign, len(s.items))
	copy(out, s.items)
	return out
}

// Refresh reloads the list. On error the prior list is kept.
func (s *CampaignStore) Refresh(ctx context.Context) error {
	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	subs := make([]chan struct{}, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel signalled after each successful refresh and a
// cancel func that unregisters it.
func (s *CampaignStore) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
