package analytics

import (
	"sort"

	"github.com/david/ywc-dashboard/internal/models"
)

// SummaryStats counts indicators per fixed type and tier. Unrecognized
// values fall out of every bucket, so the buckets need not add up to Total.
type SummaryStats struct {
	Total      int `json:"total"`
	Universal  int `json:"universal"`
	Strategic  int `json:"strategic"`
	Collective int `json:"collective"`
	Tier1      int `json:"tier1"`
	Tier2      int `json:"tier2"`
	Tier3      int `json:"tier3"`
}

type TierMetric struct {
	Tier           string  `json:"tier"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	NotStarted     int     `json:"notStarted"`
	CompletionRate float64 `json:"completionRate"`
}

type TypeMetric struct {
	Type       string  `json:"type"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Aggregation is one bucket of a distribution.
type Aggregation struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func Summary(indicators []models.Indicator) SummaryStats {
	s := SummaryStats{Total: len(indicators)}
	for _, ind := range indicators {
		switch ind.Type {
		case models.TypeUniversal:
			s.Universal++
		case models.TypeStrategicCompliance:
			s.Strategic++
		case models.TypeCollectiveImpact:
			s.Collective++
		}
		switch ind.Tier {
		case models.Tier1:
			s.Tier1++
		case models.Tier2:
			s.Tier2++
		case models.Tier3:
			s.Tier3++
		}
	}
	return s
}

// TierMetrics reports one entry per fixed tier. Without completion input
// every indicator counts as in progress.
func TierMetrics(indicators []models.Indicator) []TierMetric {
	out := make([]TierMetric, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		total := 0
		for _, ind := range indicators {
			if ind.Tier == tier {
				total++
			}
		}
		completed := 0
		out = append(out, TierMetric{
			Tier:           tier,
			Total:          total,
			Completed:      completed,
			InProgress:     total - completed,
			CompletionRate: percent(completed, total),
		})
	}
	return out
}

func TypeMetrics(indicators []models.Indicator) []TypeMetric {
	out := make([]TypeMetric, 0, len(models.IndicatorTypes))
	for _, typ := range models.IndicatorTypes {
		total := 0
		for _, ind := range indicators {
			if ind.Type == typ {
				total++
			}
		}
		out = append(out, TypeMetric{Type: typ, Total: total, Percentage: percent(total, len(indicators))})
	}
	return out
}

// PillarDistribution orders pillars by number, ties by label.
func PillarDistribution(indicators []models.Indicator) []Aggregation {
	out := distribution(indicators, func(i models.Indicator) string { return i.Pillar })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := models.NumberIn(out[i].Value), models.NumberIn(out[j].Value)
		if a != b {
			return a < b
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// SourceDistribution orders by count descending, ties in first-seen order.
func SourceDistribution(indicators []models.Indicator) []Aggregation {
	return byCount(distribution(indicators, func(i models.Indicator) string { return i.Source }))
}

func CategoryDistribution(indicators []models.Indicator) []Aggregation {
	return byCount(distribution(indicators, func(i models.Indicator) string { return i.Category }))
}

// distribution counts non-empty values in first-seen order. Percentages are
// relative to every indicator, including those with an empty value.
func distribution(indicators []models.Indicator, get func(models.Indicator) string) []Aggregation {
	index := make(map[string]int)
	out := []Aggregation{}
	for _, ind := range indicators {
		v := get(ind)
		if v == "" {
			continue
		}
		if i, ok := index[v]; ok {
			out[i].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, Aggregation{Value: v, Count: 1})
	}
	for i := range out {
		out[i].Percentage = percent(out[i].Count, len(indicators))
	}
	return out
}

func byCount(aggs []Aggregation) []Aggregation {
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].Count > aggs[j].Count })
	return aggs
}

// percent is part/whole*100, or 0 for an empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
