package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func fullRow(mod func(RawRow)) RawRow {
	row := RawRow{
		ColOrganization:  "YWC",
		ColIndicatorType: "Universal",
		ColTier:          "Tier 1",
		ColIndicatorID:   "U-1",
		ColIndicatorName: "Staff retention",
		ColDescription:   "Annual staff turnover",
		ColCategory:      "Capacity",
		ColPillar:        "Pillar 2: Support",
		ColSource:        "Internal",
		ColPriority:      "High",
	}
	if mod != nil {
		mod(row)
	}
	return row
}

func messagesOf(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	return verrs.Messages()
}

func TestValidate_WellFormed(t *testing.T) {
	rows := []RawRow{fullRow(nil), fullRow(func(r RawRow) { r[ColIndicatorID] = "U-2" })}
	if err := Validate(rows); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	msgs := messagesOf(t, Validate(nil))
	if len(msgs) != 1 || msgs[0] != "CSV file is empty" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestValidate_MissingColumnNamed(t *testing.T) {
	for _, col := range DefaultSchema().RequiredColumns {
		t.Run(col, func(t *testing.T) {
			row := fullRow(func(r RawRow) { delete(r, col) })
			msgs := messagesOf(t, Validate([]RawRow{row}))
			if !strings.HasPrefix(msgs[0], "Missing required columns: ") {
				t.Fatalf("first message should list columns, got %q", msgs[0])
			}
			if !strings.Contains(msgs[0], col) {
				t.Fatalf("message %q does not name %q", msgs[0], col)
			}
		})
	}
}

func TestValidate_MissingColumnsListed(t *testing.T) {
	row := fullRow(func(r RawRow) {
		delete(r, ColCategory)
		delete(r, ColPriority)
	})
	msgs := messagesOf(t, Validate([]RawRow{row}))
	if msgs[0] != "Missing required columns: Category, Priority" {
		t.Fatalf("got %q", msgs[0])
	}
}

func TestValidate_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(RawRow)
		want string
	}{
		{
			name: "invalid type",
			mod:  func(r RawRow) { r[ColIndicatorType] = "Regional" },
			want: `Row 3: Invalid Indicator Type "Regional". Must be one of: Universal, Strategic Compliance, Collective Impact`,
		},
		{
			name: "invalid tier",
			mod:  func(r RawRow) { r[ColTier] = "Tier 4" },
			want: `Row 3: Invalid Tier "Tier 4". Must be one of: Tier 1, Tier 2, Tier 3`,
		},
		{
			name: "missing id",
			mod:  func(r RawRow) { r[ColIndicatorID] = "" },
			want: "Row 3: Missing Indicator ID",
		},
		{
			name: "missing name",
			mod:  func(r RawRow) { r[ColIndicatorName] = "" },
			want: "Row 3: Missing Indicator Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := messagesOf(t, Validate([]RawRow{fullRow(nil), fullRow(tt.mod)}))
			if len(msgs) != 1 || msgs[0] != tt.want {
				t.Fatalf("expected [%s], got %v", tt.want, msgs)
			}
		})
	}
}

func TestValidate_EmptyEnumValueAllowed(t *testing.T) {
	row := fullRow(func(r RawRow) {
		r[ColIndicatorType] = ""
		r[ColTier] = ""
	})
	if err := Validate([]RawRow{row}); err != nil {
		t.Fatalf("empty enum cells are not validated, got %v", err)
	}
}

func TestValidate_ErrorCap(t *testing.T) {
	tests := []struct {
		bad      int
		wantLen  int
		wantTail string
	}{
		{bad: 9, wantLen: 9},
		{bad: 10, wantLen: 10},
		{bad: 11, wantLen: 11, wantTail: "...and 1 more errors"},
		{bad: 25, wantLen: 11, wantTail: "...and 15 more errors"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d errors", tt.bad), func(t *testing.T) {
			var rows []RawRow
			for i := 0; i < tt.bad; i++ {
				rows = append(rows, fullRow(func(r RawRow) { r[ColIndicatorID] = "" }))
			}
			err := Validate(rows)
			msgs := messagesOf(t, err)
			if len(msgs) != tt.wantLen {
				t.Fatalf("expected %d messages, got %d: %v", tt.wantLen, len(msgs), msgs)
			}
			if tt.wantTail != "" && msgs[len(msgs)-1] != tt.wantTail {
				t.Fatalf("expected tail %q, got %q", tt.wantTail, msgs[len(msgs)-1])
			}
			if got := len(err.(ValidationErrors)); got != tt.bad {
				t.Fatalf("aggregate should keep all %d errors, got %d", tt.bad, got)
			}
		})
	}
}

func TestLoadSchema_Embedded(t *testing.T) {
	s := DefaultSchema()
	if len(s.RequiredColumns) != 10 {
		t.Fatalf("expected 10 required columns, got %d", len(s.RequiredColumns))
	}
	if s.MaxReportedErrors != 10 {
		t.Fatalf("expected default cap 10, got %d", s.MaxReportedErrors)
	}
	if got := len(s.ExportColumns()); got != 15 {
		t.Fatalf("expected 15 export columns, got %d", got)
	}
}

func TestParseSchema_ErrorCap(t *testing.T) {
	t.Setenv("YWC_MAX_REPORTED_ERRORS", "abc")

	s, err := ParseSchema(schemaYAML)
	if err != nil {
		t.Fatalf("embedded schema must not depend on the environment: %v", err)
	}
	if s.MaxReportedErrors != 10 {
		t.Fatalf("expected cap 10, got %d", s.MaxReportedErrors)
	}

	tests := []struct {
		doc  string
		want int
	}{
		{"required_columns: [A]\nmax_reported_errors: 3\n", 3},
		{"required_columns: [A]\nmax_reported_errors: 0\n", 10},
		{"required_columns: [A]\n", 10},
	}
	for _, tt := range tests {
		s, err := ParseSchema([]byte(tt.doc))
		if err != nil {
			t.Fatalf("ParseSchema(%q): %v", tt.doc, err)
		}
		if s.MaxReportedErrors != tt.want {
			t.Fatalf("ParseSchema(%q) cap = %d, want %d", tt.doc, s.MaxReportedErrors, tt.want)
		}
	}

	if _, err := ParseSchema([]byte("max_reported_errors: x\n")); err == nil {
		t.Fatal("expected parse error for non-numeric cap")
	}
	if _, err := ParseSchema([]byte("optional_columns: [A]\n")); err == nil {
		t.Fatal("expected error for schema without required columns")
	}
}
