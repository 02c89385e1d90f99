package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/david/ywc-dashboard/internal/models"
)

// Funder names accepted by FunderReport.
const (
	FunderWGED         = "WGED"
	FunderNAPBilateral = "NAP Bilateral"
	FunderGeneral      = "General"
)

var funderSources = map[string]string{
	FunderWGED:         "WGED-Specific Indicators (from NAP Prev/VicServices TPAs)",
	FunderNAPBilateral: "YG-Federal NAP GBV Bilateral (July 2025)",
	FunderGeneral:      "Internal",
}

// FunderSource returns the Source value reported to funder.
func FunderSource(funder string) (string, bool) {
	s, ok := funderSources[funder]
	return s, ok
}

// ForFunder keeps the indicators whose source belongs to funder. An unknown
// funder keeps everything.
func ForFunder(indicators []models.Indicator, funder string) []models.Indicator {
	source, ok := FunderSource(funder)
	if !ok {
		return indicators
	}
	var out []models.Indicator
	for _, ind := range indicators {
		if ind.Source == source {
			out = append(out, ind)
		}
	}
	return out
}

func PDFFilename(t time.Time) string {
	return fmt.Sprintf("ywc_report_%s.pdf", t.Format("2006-01-02"))
}

func FunderPDFFilename(funder string, t time.Time) string {
	return fmt.Sprintf("%s_report_%s.pdf", strings.ToLower(funder), t.Format("2006-01-02"))
}
