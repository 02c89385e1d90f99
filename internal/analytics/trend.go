package analytics

import (
	"time"

	"github.com/david/ywc-dashboard/internal/models"
)

// TrendPoint is one quarter of the chart series.
type TrendPoint struct {
	Quarter         string    `json:"quarter"`
	Date            time.Time `json:"date"`
	Tier1Count      int       `json:"tier1Count"`
	Tier2Count      int       `json:"tier2Count"`
	Tier3Count      int       `json:"tier3Count"`
	TotalIndicators int       `json:"totalIndicators"`
	UniversalCount  int       `json:"universalCount"`
	StrategicCount  int       `json:"strategicCount"`
	CollectiveCount int       `json:"collectiveCount"`
}

// BuildTrend turns a newest-first history into an oldest-first series.
// TotalIndicators is the count recorded at write time. An unparseable
// timestamp leaves Date zero.
func BuildTrend(snapshots []models.QuarterSnapshot) []TrendPoint {
	out := make([]TrendPoint, 0, len(snapshots))
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		point := TrendPoint{
			Quarter:         snap.Key,
			TotalIndicators: snap.IndicatorCount,
		}
		if ts, err := time.Parse(time.RFC3339Nano, snap.Timestamp); err == nil {
			point.Date = ts
		}
		for _, m := range TierMetrics(snap.Data) {
			switch m.Tier {
			case models.Tier1:
				point.Tier1Count = m.Total
			case models.Tier2:
				point.Tier2Count = m.Total
			case models.Tier3:
				point.Tier3Count = m.Total
			}
		}
		for _, ind := range snap.Data {
			switch ind.Type {
			case models.TypeUniversal:
				point.UniversalCount++
			case models.TypeStrategicCompliance:
				point.StrategicCount++
			case models.TypeCollectiveImpact:
				point.CollectiveCount++
			}
		}
		out = append(out, point)
	}
	return out
}
