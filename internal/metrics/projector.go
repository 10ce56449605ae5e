package metrics

import "github.com/AngelCh415/socialdash/internal/models"

// ProjectStats overrides local stats field by field with authoritative values
// that are present and non-zero.
func ProjectStats(local models.AggregateStats, auth *models.PartialStats) models.AggregateStats {
	if auth == nil {
		return local
	}
	out := local
	out.TotalCampaigns = pickInt(auth.TotalCampaigns, local.TotalCampaigns)
	out.PostsThisWeek = pickInt(auth.PostsThisWeek, local.PostsThisWeek)
	out.ActiveCount = pickInt(auth.ActiveCount, local.ActiveCount)
	out.TotalPosts = pickInt(auth.TotalPosts, local.TotalPosts)
	if auth.AvgEngagement != nil && *auth.AvgEngagement != 0 {
		out.AvgEngagement = *auth.AvgEngagement
	}
	return out
}

func pickInt(auth *int, local int) int {
	if auth != nil && *auth != 0 {
		return *auth
	}
	return local
}

// ReconcileTotal follows the same rule as ProjectStats: an authoritative total
// wins only when present and non-zero.
func ReconcileTotal(local int, authoritative *int) int {
	return pickInt(authoritative, local)
}

func UsageTotals(usage map[string]models.ServiceUsage) models.UsageTotals {
	out := models.UsageTotals{Services: map[string]models.ServiceUsage{}}
	for name, u := range usage {
		out.Services[name] = u
		out.Tokens += u.TokensUsed
		out.Credits += u.CreditsUsed
	}
	return out
}
