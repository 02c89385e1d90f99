package ingest

import (
	"strings"
	"testing"
)

func TestReadTable(t *testing.T) {
	input := "\ufeffOrganization , Indicator ID,Indicator Name\n" +
		"YWC,U-1,\"Retention, annual\"\n" +
		"\n" +
		"YWC,U-2\n" +
		"YWC,U-3,Name,extra\n"

	table, err := ReadTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Organization", "Indicator ID", "Indicator Name"}; strings.Join(table.Header, "|") != strings.Join(want, "|") {
		t.Fatalf("header = %q", table.Header)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows (blank line skipped), got %d", len(table.Rows))
	}
	if got := table.Rows[0]["Indicator Name"]; got != "Retention, annual" {
		t.Fatalf("quoted cell = %q", got)
	}
	if v, ok := table.Rows[1]["Indicator Name"]; !ok || v != "" {
		t.Fatalf("short row should be padded, got %q ok=%v", v, ok)
	}
	if len(table.Rows[2]) != 3 {
		t.Fatalf("surplus cells should be dropped, got %v", table.Rows[2])
	}
}

func TestReadTable_Empty(t *testing.T) {
	table, err := ReadTable(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 0 || len(table.Header) != 0 {
		t.Fatalf("expected empty table, got %+v", table)
	}
	msgs := messagesOf(t, Validate(table.Rows))
	if msgs[0] != "CSV file is empty" {
		t.Fatalf("got %q", msgs[0])
	}
}

func TestReadTable_HeaderOnly(t *testing.T) {
	table, err := ReadTable(strings.NewReader("Organization,Tier\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(table.Rows))
	}
}
