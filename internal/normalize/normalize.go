// Package normalize maps variably shaped upstream records onto canonical posts.
//
// Each logical field is resolved by walking an ordered candidate table (fields.go)
// and taking the first defined value, else a documented default.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/socialdash/internal/models"
)

// Kind selects source-specific defaults.
type Kind int

const (
	// KindPost is a generic app post: status defaults to "".
	KindPost Kind = iota
	// KindScheduled is a scheduled-post record: status defaults to "scheduled".
	KindScheduled
	// KindCalendarEvent is a calendar event: platforms default to {"instagram"}.
	KindCalendarEvent
	// KindMedia is an Instagram Graph media object keyed by "timestamp".
	KindMedia
)

const defaultEventPlatform = "instagram"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Post normalizes one raw record. idx is used as the id when the record has none.
func Post(raw models.RawRecord, kind Kind, idx int) models.Post {
	if raw == nil {
		raw = models.RawRecord{}
	}
	p := models.Post{
		ID:           idString(raw, idx),
		CampaignName: campaignName(raw),
		Description:  str(first(raw, descriptionFields)),
		Caption:      str(first(raw, captionFields)),
		Platform:     strings.TrimSpace(str(first(raw, platformScalarFields))),
		Platforms:    platforms(raw, kind),
		Status:       status(raw, kind),
		LikeCount:    nonNegInt(first(raw, likeFields)),
		CommentsCnt:  nonNegInt(first(raw, commentFields)),
		MediaURL:     str(first(raw, mediaURLFields)),
		BatchID:      str(first(raw, batchFields)),
	}
	if kind == KindMedia {
		p.CreatedAt = timestamp(raw, mediaTimeFields)
	} else {
		p.CreatedAt = timestamp(raw, createdFields)
		p.ScheduledAt = timestamp(raw, timestampFields)
	}
	return p
}

func Posts(raws []models.RawRecord, kind Kind) []models.Post {
	out := make([]models.Post, 0, len(raws))
	for i, r := range raws {
		out = append(out, Post(r, kind, i))
	}
	return out
}

// CampaignName trims name and falls back to "Untitled campaign".
func CampaignName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.UntitledCampaign
	}
	return name
}

func campaignName(raw models.RawRecord) string {
	return CampaignName(str(first(raw, campaignFields)))
}

func status(raw models.RawRecord, kind Kind) string {
	s := strings.ToLower(strings.TrimSpace(str(first(raw, statusFields))))
	if s == "" && kind == KindScheduled {
		return "scheduled"
	}
	return s
}

func platforms(raw models.RawRecord, kind Kind) []string {
	if v, ok := first(raw, platformListFields); ok {
		if list, isList := v.([]any); isList {
			return lowerSet(list)
		}
	}
	if v, ok := first(raw, platformScalarFields); ok {
		if s := strings.ToLower(strings.TrimSpace(str(v, true))); s != "" {
			return []string{s}
		}
	}
	if v, ok := first(raw, platformNestedFields); ok {
		if list, isList := v.([]any); isList {
			return lowerSet(list)
		}
	}
	if kind == KindCalendarEvent {
		return []string{defaultEventPlatform}
	}
	return []string{}
}

func lowerSet(list []any) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		s := strings.ToLower(strings.TrimSpace(str(item, item != nil)))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func idString(raw models.RawRecord, idx int) string {
	if v, ok := first(raw, idFields); ok {
		if s := str(v, true); s != "" {
			return s
		}
	}
	return strconv.Itoa(idx)
}

func timestamp(raw models.RawRecord, table []accessor) *time.Time {
	v, ok := first(raw, table)
	if !ok {
		return nil
	}
	t, ok := ParseTime(v)
	if !ok {
		return nil
	}
	return &t
}

// ParseTime accepts RFC3339 and common naive layouts (read in local time),
// or epoch milliseconds. Anything else is treated as absent.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)), true
	case json.Number:
		ms, err := x.Int64()
		if err != nil || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	case time.Time:
		return x, !x.IsZero()
	}
	return time.Time{}, false
}

// str renders a scalar candidate as a string. Non-scalars yield "".
func str(v any, ok bool) string {
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func number(v any, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func nonNegInt(v any, ok bool) int {
	f, ok := number(v, ok)
	if !ok || f < 0 || math.IsNaN(f) {
		return 0
	}
	return int(f)
}

func strList(v any, ok bool) []string {
	list, isList := v.([]any)
	if !ok || !isList {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := strings.TrimSpace(str(item, item != nil)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
