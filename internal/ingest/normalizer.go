package ingest

import (
	"fmt"

	"github.com/david/ywc-dashboard/internal/models"
)

// FromRaw converts a validated RawRow into a canonical Indicator.
// index is the 0-based data row position, used for the placeholder id.
func FromRaw(row RawRow, index int) models.Indicator {
	ind := models.Indicator{
		ID:                 orDefault(row[ColIndicatorID], fmt.Sprintf("indicator-%d", index)),
		Organization:       row[ColOrganization],
		Type:               row[ColIndicatorType],
		Tier:               row[ColTier],
		Name:               row[ColIndicatorName],
		Description:        row[ColDescription],
		MeasurementMethods: row[ColMeasurementMethods],
		Category:           row[ColCategory],
		Pillar:             row[ColPillar],
		Source:             row[ColSource],
		Priority:           orDefault(row[ColPriority], models.DefaultPriority),
		CollectiveImpact:   row[ColCollectiveImpact],
		WorkplanExample:    row[ColWorkplanExample],
		ReportingGuidance:  row[ColReportingGuidance],
		Feedback:           row[ColTierFeedback],
	}
	deriveNumbers(&ind)
	return ind
}

// Normalize maps every row to an Indicator, preserving order.
// Duplicate ids are kept as-is.
func Normalize(rows []RawRow) []models.Indicator {
	out := make([]models.Indicator, 0, len(rows))
	for i, row := range rows {
		out = append(out, FromRaw(row, i))
	}
	return out
}

// Recompute re-derives the numeric helper fields in place. Running it twice
// changes nothing.
func Recompute(indicators []models.Indicator) {
	for i := range indicators {
		deriveNumbers(&indicators[i])
	}
}

func deriveNumbers(ind *models.Indicator) {
	ind.TierNumber = models.NumberIn(ind.Tier)
	ind.PillarNumber = models.NumberIn(ind.Pillar)
}
