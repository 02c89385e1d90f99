package ingest

import (
	"strings"

	"github.com/david/ywc-dashboard/internal/models"
)

// Column labels recognized in uploads.
const (
	ColOrganization       = "Organization"
	ColIndicatorType      = "Indicator Type"
	ColTier               = "Tier"
	ColIndicatorID        = "Indicator ID"
	ColIndicatorName      = "Indicator Name"
	ColDescription        = "Description"
	ColMeasurementMethods = "Measurement Methods"
	ColCategory           = "Category"
	ColPillar             = "Pillar"
	ColSource             = "Source"
	ColPriority           = "Priority"
	ColCollectiveImpact   = "Collective Impact"
	ColWorkplanExample    = "Workplan Integration Example"
	ColReportingGuidance  = "Reporting Guidance"
	ColTierFeedback       = "Tier Feedback"
)

// RawRow is one untrusted data line keyed by trimmed header label.
type RawRow map[string]string

// Table is the result of reading a delimited file: its header and data rows.
type Table struct {
	Header []string
	Rows   []RawRow
}

// ImportResult is handed to the caller when an upload is accepted.
type ImportResult struct {
	Indicators []models.Indicator `json:"indicators"`
	Meta       models.ImportMeta  `json:"meta"`
	Quarter    string             `json:"quarter,omitempty"`
	Persisted  bool               `json:"persisted"`
}

// ImportError is returned when an upload is rejected. Nothing is applied.
type ImportError struct {
	Errors []string `json:"errors"`
}

func (e *ImportError) Error() string {
	return "import rejected: " + strings.Join(e.Errors, "; ")
}
