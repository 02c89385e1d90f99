package analytics

import (
	"strings"

	"github.com/david/ywc-dashboard/internal/models"
)

// All marks a filter field as inactive.
const All = "all"

// FilterState holds the user's narrowing criteria. The zero value matches
// everything; "all" and "" are both inactive for the exact-match fields.
type FilterState struct {
	Type     string `json:"type" query:"type"`
	Tier     string `json:"tier" query:"tier"`
	Pillar   string `json:"pillar" query:"pillar"`
	Source   string `json:"source" query:"source"`
	Priority string `json:"priority" query:"priority"`
	Search   string `json:"search" query:"search"`
}

func active(v string) bool {
	return v != "" && v != All
}

// Filter returns the indicators matching every active criterion, in input
// order. Exact-match fields are ANDed; Search is a case-insensitive
// substring match over name, description, id and category.
func Filter(indicators []models.Indicator, state FilterState) []models.Indicator {
	search := strings.ToLower(state.Search)
	out := make([]models.Indicator, 0, len(indicators))
	for _, ind := range indicators {
		if active(state.Type) && ind.Type != state.Type {
			continue
		}
		if active(state.Tier) && ind.Tier != state.Tier {
			continue
		}
		if active(state.Pillar) && ind.Pillar != state.Pillar {
			continue
		}
		if active(state.Source) && ind.Source != state.Source {
			continue
		}
		if active(state.Priority) && ind.Priority != state.Priority {
			continue
		}
		if search != "" && !matchesSearch(ind, search) {
			continue
		}
		out = append(out, ind)
	}
	return out
}

func matchesSearch(ind models.Indicator, needle string) bool {
	for _, field := range []string{ind.Name, ind.Description, ind.ID, ind.Category} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// CountActiveFilters reports how many criteria narrow the set, search included.
func CountActiveFilters(state FilterState) int {
	n := 0
	for _, v := range []string{state.Type, state.Tier, state.Pillar, state.Source, state.Priority} {
		if active(v) {
			n++
		}
	}
	if state.Search != "" {
		n++
	}
	return n
}

// FindByID returns the first indicator with id. Duplicate ids resolve to the
// earliest row.
func FindByID(indicators []models.Indicator, id string) (models.Indicator, bool) {
	for _, ind := range indicators {
		if ind.ID == id {
			return ind, true
		}
	}
	return models.Indicator{}, false
}
