package analytics

import (
	"sort"

	"github.com/david/ywc-dashboard/internal/models"
)

// UnknownTier labels indicators without a tier.
const UnknownTier = "Unknown"

type TierGroup struct {
	Tier       string             `json:"tier"`
	Indicators []models.Indicator `json:"indicators"`
}

// GroupByTier buckets indicators by tier label, keeping input order within
// each group. Groups run Tier 1..3, then any other labels sorted, then Unknown.
func GroupByTier(indicators []models.Indicator) []TierGroup {
	groups := make(map[string][]models.Indicator)
	for _, ind := range indicators {
		tier := ind.Tier
		if tier == "" {
			tier = UnknownTier
		}
		groups[tier] = append(groups[tier], ind)
	}

	rank := func(tier string) int {
		for i, t := range models.Tiers {
			if t == tier {
				return i
			}
		}
		if tier == UnknownTier {
			return len(models.Tiers) + 1
		}
		return len(models.Tiers)
	}

	labels := make([]string, 0, len(groups))
	for tier := range groups {
		labels = append(labels, tier)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := rank(labels[i]), rank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})

	out := make([]TierGroup, 0, len(labels))
	for _, tier := range labels {
		out = append(out, TierGroup{Tier: tier, Indicators: groups[tier]})
	}
	return out
}

type TypeGroup struct {
	Type       string             `json:"type"`
	Indicators []models.Indicator `json:"indicators"`
}

// GroupByType buckets indicators in the fixed type order, skipping empty
// groups. Unrecognized types are omitted.
func GroupByType(indicators []models.Indicator) []TypeGroup {
	var out []TypeGroup
	for _, typ := range models.IndicatorTypes {
		var members []models.Indicator
		for _, ind := range indicators {
			if ind.Type == typ {
				members = append(members, ind)
			}
		}
		if len(members) > 0 {
			out = append(out, TypeGroup{Type: typ, Indicators: members})
		}
	}
	return out
}
