package ingest

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	KindEmptyInput           ErrorKind = "EmptyInput"
	KindMissingColumns       ErrorKind = "MissingColumns"
	KindInvalidEnum          ErrorKind = "InvalidEnum"
	KindMissingRequiredField ErrorKind = "MissingRequiredField"
	KindParseError           ErrorKind = "ParseError"
)

// ValidationError is a single problem found in an upload.
// Row is the display row number (data index + 2), 0 for file-level problems.
type ValidationError struct {
	Kind    ErrorKind
	Row     int
	Column  string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors aggregates every problem found, in discovery order.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	return strings.Join(errs.Messages(), "\n")
}

// Messages returns the human-readable list, capped at the schema limit.
// Beyond the limit a single "...and N more errors" line is appended, where N
// counts only the suppressed messages.
func (errs ValidationErrors) Messages() []string {
	return errs.capped(DefaultSchema().MaxReportedErrors)
}

func (errs ValidationErrors) capped(limit int) []string {
	if len(errs) <= limit {
		out := make([]string, 0, len(errs))
		for _, e := range errs {
			out = append(out, e.Message)
		}
		return out
	}
	out := make([]string, 0, limit+1)
	for _, e := range errs[:limit] {
		out = append(out, e.Message)
	}
	out = append(out, fmt.Sprintf("...and %d more errors", len(errs)-limit))
	return out
}

// Validate checks rows against the embedded schema. It returns nil when the
// upload is acceptable, otherwise a ValidationErrors value.
func Validate(rows []RawRow) error {
	return DefaultSchema().Validate(rows)
}

// Validate checks rows against s. Pure function of its input.
func (s *Schema) Validate(rows []RawRow) error {
	if len(rows) == 0 {
		return ValidationErrors{{Kind: KindEmptyInput, Message: "CSV file is empty"}}
	}

	var errs ValidationErrors

	headers := rows[0]
	var missing []string
	for _, col := range s.RequiredColumns {
		if _, ok := headers[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, ValidationError{
			Kind:    KindMissingColumns,
			Column:  strings.Join(missing, ", "),
			Message: fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")),
		})
	}

	for idx, row := range rows {
		rowNum := idx + 2 // header line plus 1-based numbering

		for _, enum := range s.Enumerations {
			v := row[enum.Column]
			if v == "" || enum.Allows(v) {
				continue
			}
			errs = append(errs, ValidationError{
				Kind:   KindInvalidEnum,
				Row:    rowNum,
				Column: enum.Column,
				Value:  v,
				Message: fmt.Sprintf("Row %d: Invalid %s %q. Must be one of: %s",
					rowNum, enum.Column, v, strings.Join(enum.Values, ", ")),
			})
		}

		for _, field := range s.RequiredFields {
			if row[field] != "" {
				continue
			}
			errs = append(errs, ValidationError{
				Kind:    KindMissingRequiredField,
				Row:     rowNum,
				Column:  field,
				Message: fmt.Sprintf("Row %d: Missing %s", rowNum, field),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
