package trending

import (
	"context"
	"sort"
	"strings"

	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/normalize"
)

const maxPrefillPoints = 5

// Chips are the fixed topic shortcuts shown on the dashboard.
var Chips = []string{"AI Technology", "Social Media", "Marketing", "Automation"}

type API interface {
	FetchTrendingTopics(ctx context.Context, category string) (map[string][]string, error)
	FetchTopicDetails(ctx context.Context, topic, category string) (models.RawRecord, error)
	RefreshTrendingTopics(ctx context.Context) error
}

// MapCategory maps a chip or topic name onto a backend category. Checks are
// substring matches in priority order.
func MapCategory(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "ai"), strings.Contains(n, "automation"), strings.Contains(n, "tech"):
		return "technology"
	case strings.Contains(n, "marketing"), strings.Contains(n, "business"):
		return "business"
	case strings.Contains(n, "social"):
		return "news"
	}
	return "technology"
}

// CategoryFor picks the name to map: the explicit category, else the topic.
func CategoryFor(topic, category string) string {
	if category != "" {
		return MapCategory(category)
	}
	return MapCategory(topic)
}

type Service struct{ api API }

func NewService(api API) *Service { return &Service{api: api} }

// Topics returns the list for the mapped category, falling back to the first
// list in the payload ordered by category name.
func (s *Service) Topics(ctx context.Context, category string) ([]string, error) {
	all, err := s.api.FetchTrendingTopics(ctx, category)
	if err != nil {
		return nil, err
	}
	if list, ok := all[category]; ok {
		return list, nil
	}
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return []string{}, nil
	}
	return all[names[0]], nil
}

func (s *Service) Details(ctx context.Context, topic, category string) (models.TopicDetails, error) {
	raw, err := s.api.FetchTopicDetails(ctx, topic, category)
	if err != nil {
		return models.TopicDetails{}, err
	}
	return normalize.TopicDetails(raw), nil
}

// Refresh asks the backend to regenerate topics, then reloads the category.
func (s *Service) Refresh(ctx context.Context, category string) ([]string, error) {
	if err := s.api.RefreshTrendingTopics(ctx); err != nil {
		return nil, err
	}
	return s.Topics(ctx, category)
}

// PrefillDescription builds the post description handed to the create flow.
func PrefillDescription(topic string, d models.TopicDetails) string {
	overview := d.Overview
	if overview == "" {
		overview = topic + " insights"
	}
	points := d.KeyPoints
	if len(points) > maxPrefillPoints {
		points = points[:maxPrefillPoints]
	}
	bullets := make([]string, len(points))
	for i, p := range points {
		bullets[i] = "• " + p
	}
	return strings.TrimSpace(overview + ". " + strings.Join(bullets, " "))
}
