package ingest

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/schema.yaml
var schemaYAML []byte

const defaultMaxReportedErrors = 10

// Schema is the column contract an upload must satisfy.
type Schema struct {
	RequiredColumns   []string      `yaml:"required_columns"`
	OptionalColumns   []string      `yaml:"optional_columns"`
	Enumerations      []Enumeration `yaml:"enumerations"`
	RequiredFields    []string      `yaml:"required_fields"`
	MaxReportedErrors int           `yaml:"max_reported_errors,omitempty"` // Default: 10
}

// Enumeration restricts a column to a fixed set of values when it is non-empty.
type Enumeration struct {
	Column string   `yaml:"column"`
	Values []string `yaml:"values"`
}

// Allows reports whether v is one of the enumerated values.
func (e Enumeration) Allows(v string) bool {
	for _, allowed := range e.Values {
		if v == allowed {
			return true
		}
	}
	return false
}

// ExportColumns is the column order used when writing indicators back out.
func (s *Schema) ExportColumns() []string {
	return []string{
		ColOrganization, ColIndicatorType, ColTier, ColIndicatorID, ColIndicatorName,
		ColDescription, ColMeasurementMethods, ColCategory, ColPillar, ColSource,
		ColPriority, ColCollectiveImpact, ColWorkplanExample, ColReportingGuidance,
		ColTierFeedback,
	}
}

// ParseSchema decodes a schema document. A missing or non-positive
// max_reported_errors falls back to the default cap.
func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if schema.MaxReportedErrors <= 0 {
		schema.MaxReportedErrors = defaultMaxReportedErrors
	}
	if len(schema.RequiredColumns) == 0 {
		return nil, fmt.Errorf("schema has no required columns")
	}
	return &schema, nil
}

var (
	defaultSchemaOnce sync.Once
	defaultSchema     *Schema
)

// DefaultSchema returns the embedded schema, loaded once.
func DefaultSchema() *Schema {
	defaultSchemaOnce.Do(func() {
		s, err := ParseSchema(schemaYAML)
		if err != nil {
			panic(fmt.Sprintf("ingest: embedded schema is invalid: %v", err))
		}
		defaultSchema = s
	})
	return defaultSchema
}
