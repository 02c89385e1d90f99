package reporting

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		want        FieldKind
	}{
		{"yes no", "Do you have a safety plan? (Yes/No)", FieldKind{Kind: YesNo}},
		{"spaced yes no", "Policy in place (Yes / No)", FieldKind{Kind: YesNo}},
		{
			"checkbox list",
			"Check all that apply:\n☐ Counselling\n  ☐ Housing support\n",
			FieldKind{Kind: Checkbox, Options: []string{"Counselling", "Housing support"}},
		},
		{
			"radio options",
			"Select one. Options: Weekly / Monthly / Quarterly",
			FieldKind{Kind: Radio, Options: []string{"Weekly", "Monthly", "Quarterly"}},
		},
		{"number", "How many participants attended?", FieldKind{Kind: Number}},
		{"percentage", "Report the percentage of staff trained", FieldKind{Kind: Number}},
		{
			"calculation",
			"Calculate: staff who left ÷ average staff",
			FieldKind{Kind: Calculation, Formula: "Calculate: staff who left ÷ average staff"},
		},
		{"free text", "Describe your approach to outreach.", FieldKind{Kind: FreeText}},
		{"empty", "", FieldKind{Kind: FreeText}},
		// yes/no is checked before every other rule
		{"order", "Yes/No. How many?", FieldKind{Kind: YesNo}},
		// number is checked before calculation
		{"number before calculation", "What was your turnover? Calculate: left ÷ avg", FieldKind{Kind: Number}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Classify(tt.instruction)); diff != "" {
				t.Fatalf("Classify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractOptions_Mixed(t *testing.T) {
	got := ExtractOptions("☐ A\nOptions: B / / C\nnot an option")
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Fatalf("ExtractOptions mismatch (-want +got):\n%s", diff)
	}
	if got := ExtractOptions("options: lowercase label"); got != nil {
		t.Fatalf("label is case-sensitive, got %v", got)
	}
}

func TestExtractOptions_DropsEmpty(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Options: A//B", []string{"A", "B"}},
		{"Options: / A /", []string{"A"}},
		{"☐\n☐ Shelter\n☐   ", []string{"Shelter"}},
		{"Options:", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ExtractOptions(tt.in)); diff != "" {
			t.Errorf("ExtractOptions(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestKindJSON(t *testing.T) {
	b, err := json.Marshal(FieldKind{Kind: Radio, Options: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"kind":"radio","options":["x"]}` {
		t.Fatalf("got %s", b)
	}
}
