package analytics

import (
	"sort"

	"github.com/david/ywc-dashboard/internal/models"
)

// FilterOptions lists the distinct non-empty values available for each filter.
type FilterOptions struct {
	Types      []string `json:"types"`
	Tiers      []string `json:"tiers"`
	Pillars    []string `json:"pillars"`
	Sources    []string `json:"sources"`
	Priorities []string `json:"priorities"`
	Categories []string `json:"categories"`
}

// Options collects filter values. Pillars sort by their leading number, the
// rest lexicographically.
func Options(indicators []models.Indicator) FilterOptions {
	pick := func(get func(models.Indicator) string) []string {
		seen := make(map[string]struct{})
		out := []string{}
		for _, ind := range indicators {
			v := get(ind)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		return out
	}

	opts := FilterOptions{
		Types:      pick(func(i models.Indicator) string { return i.Type }),
		Tiers:      pick(func(i models.Indicator) string { return i.Tier }),
		Pillars:    pick(func(i models.Indicator) string { return i.Pillar }),
		Sources:    pick(func(i models.Indicator) string { return i.Source }),
		Priorities: pick(func(i models.Indicator) string { return i.Priority }),
		Categories: pick(func(i models.Indicator) string { return i.Category }),
	}
	sort.Strings(opts.Types)
	sort.Strings(opts.Tiers)
	sort.Strings(opts.Sources)
	sort.Strings(opts.Priorities)
	sort.Strings(opts.Categories)
	sortPillars(opts.Pillars)
	return opts
}

// sortPillars orders labels by extracted number, ties by label.
func sortPillars(pillars []string) {
	sort.SliceStable(pillars, func(i, j int) bool {
		a, b := models.NumberIn(pillars[i]), models.NumberIn(pillars[j])
		if a != b {
			return a < b
		}
		return pillars[i] < pillars[j]
	})
}
