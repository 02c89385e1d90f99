package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/david/ywc-dashboard/internal/ingest"
	"github.com/david/ywc-dashboard/internal/models"
)

// WriteCSV writes indicators with the canonical header, one row each, in
// order. The header is written even for an empty set.
func WriteCSV(w io.Writer, indicators []models.Indicator) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	columns := ingest.DefaultSchema().ExportColumns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ind := range indicators {
		if err := cw.Write(csvRecord(ind)); err != nil {
			return fmt.Errorf("write csv row %s: %w", ind.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvRecord follows Schema.ExportColumns order.
func csvRecord(ind models.Indicator) []string {
	return []string{
		ind.Organization,
		ind.Type,
		ind.Tier,
		ind.ID,
		ind.Name,
		ind.Description,
		ind.MeasurementMethods,
		ind.Category,
		ind.Pillar,
		ind.Source,
		ind.Priority,
		ind.CollectiveImpact,
		ind.WorkplanExample,
		ind.ReportingGuidance,
		ind.Feedback,
	}
}

func CSVFilename(t time.Time) string {
	return fmt.Sprintf("ywc_indicators_%s.csv", t.Format("2006-01-02"))
}
