package normalize

import (
	"strings"

	"github.com/AngelCh415/socialdash/internal/models"
)

// accessor reads one candidate value from a raw record. ok is false when the
// value is missing, null or an empty string.
type accessor func(models.RawRecord) (any, bool)

func key(name string) accessor {
	return func(r models.RawRecord) (any, bool) {
		v, ok := r[name]
		if !ok || v == nil {
			return nil, false
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return nil, false
		}
		return v, true
	}
}

func path(names ...string) accessor {
	return func(r models.RawRecord) (any, bool) {
		cur := r
		for i, n := range names {
			if i == len(names)-1 {
				return key(n)(cur)
			}
			next, ok := cur[n].(map[string]any)
			if !ok {
				return nil, false
			}
			cur = next
		}
		return nil, false
	}
}

func keys(names ...string) []accessor {
	out := make([]accessor, 0, len(names))
	for _, n := range names {
		out = append(out, key(n))
	}
	return out
}

// Candidate tables, in priority order. The first defined value wins.
var (
	timestampFields   = keys("scheduled_at", "scheduled_time", "scheduledAt", "start_time", "start", "date")
	createdFields     = keys("created_at", "createdAt")
	mediaTimeFields   = keys("timestamp", "created_at", "createdAt")
	descriptionFields = keys("original_description", "caption", "title", "message")
	campaignFields    = keys("campaign_name", "campaignName")
	idFields          = keys("id", "post_id", "event_id")
	batchFields       = keys("batch_id", "batchId")
	statusFields      = keys("status")
	captionFields     = keys("caption")
	mediaURLFields    = keys("media_url", "mediaUrl")
	likeFields        = keys("like_count", "likes")
	commentFields     = keys("comments_count", "comments")

	platformListFields   = []accessor{key("platforms")}
	platformScalarFields = []accessor{key("platform")}
	platformNestedFields = []accessor{path("metadata", "platforms")}

	keyPointFields     = keys("keyPoints", "key_points")
	relatedTopicFields = keys("relatedTopics", "related_topics")
)

func first(r models.RawRecord, table []accessor) (any, bool) {
	for _, get := range table {
		if v, ok := get(r); ok {
			return v, true
		}
	}
	return nil, false
}
