package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Indicator type labels.
const (
	TypeUniversal           = "Universal"
	TypeStrategicCompliance = "Strategic Compliance"
	TypeCollectiveImpact    = "Collective Impact"
)

// Tier labels.
const (
	Tier1 = "Tier 1"
	Tier2 = "Tier 2"
	Tier3 = "Tier 3"
)

// DefaultPriority is used when a row carries no Priority value.
const DefaultPriority = "N/A"

var (
	IndicatorTypes = []string{TypeUniversal, TypeStrategicCompliance, TypeCollectiveImpact}
	Tiers          = []string{Tier1, Tier2, Tier3}
)

type Indicator struct {
	ID                 string `json:"id"`
	Organization       string `json:"organization"`
	Type               string `json:"type"`
	Tier               string `json:"tier"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	MeasurementMethods string `json:"measurementMethods"`
	Category           string `json:"category"`
	Pillar             string `json:"pillar"`
	Source             string `json:"source"`
	Priority           string `json:"priority"`
	CollectiveImpact   string `json:"collectiveImpact"`
	WorkplanExample    string `json:"workplanExample"`
	ReportingGuidance  string `json:"reportingGuidance"`
	Feedback           string `json:"feedback"`
	TierNumber         int    `json:"tierNumber"`
	PillarNumber       int    `json:"pillarNumber"`
}

// QuarterSnapshot is a point-in-time copy of the indicator set for one fiscal quarter.
type QuarterSnapshot struct {
	Key            string      `json:"key"` // "<year>-Q<quarter>"
	Quarter        int         `json:"quarter"`
	Year           int         `json:"year"`
	Timestamp      string      `json:"timestamp"` // RFC3339
	Data           []Indicator `json:"data"`
	IndicatorCount int         `json:"indicatorCount"`
}

// Annotation is the per-indicator reporting state entered by the organization.
type Annotation struct {
	ResponseData string    `json:"responseData"`
	Evidence     string    `json:"evidence"`
	Notes        string    `json:"notes"`
	ActionItems  string    `json:"actionItems"`
	LastUpdated  time.Time `json:"lastUpdated"`
	IsCompleted  bool      `json:"isCompleted"`
}

type Settings struct {
	Theme       string `json:"theme"`
	DefaultView string `json:"defaultView"`
}

func DefaultSettings() Settings {
	return Settings{Theme: "light", DefaultView: "dashboard"}
}

// ImportMeta describes an accepted upload.
type ImportMeta struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	RowCount   int       `json:"rowCount"`
	UploadDate time.Time `json:"uploadDate"`
}

var firstNumber = regexp.MustCompile(`\d+`)

// NumberIn returns the first run of digits in s, or 0 when there is none.
func NumberIn(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// QuarterKey formats the snapshot key for a fiscal quarter, e.g. "2025-Q1".
func QuarterKey(year, quarter int) string {
	return fmt.Sprintf("%d-Q%d", year, quarter)
}

// QuarterOf returns the calendar quarter (1..4) and year containing t.
func QuarterOf(t time.Time) (quarter, year int) {
	return (int(t.Month())-1)/3 + 1, t.Year()
}
