package reporting

import (
	"encoding/json"
	"strings"
)

// Kind enumerates how a measurement instruction should be answered.
type Kind int

const (
	FreeText Kind = iota
	YesNo
	Checkbox
	Radio
	Number
	Calculation
)

var kindNames = map[Kind]string{
	FreeText:    "freeText",
	YesNo:       "yesNo",
	Checkbox:    "checkbox",
	Radio:       "radio",
	Number:      "number",
	Calculation: "calculation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "freeText"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// FieldKind is the classified answer shape of an indicator. Options is set
// for Checkbox and Radio, Formula for Calculation.
type FieldKind struct {
	Kind    Kind     `json:"kind"`
	Options []string `json:"options,omitempty"`
	Formula string   `json:"formula,omitempty"`
}

const checkboxMark = "☐"

// Classify infers the answer shape from a free-text measurement instruction.
// Rules are checked in order and the first match wins.
func Classify(instruction string) FieldKind {
	text := strings.ToLower(instruction)
	switch {
	case strings.Contains(text, "yes/no") || strings.Contains(text, "(yes / no)"):
		return FieldKind{Kind: YesNo}
	case strings.Contains(text, "check all that apply") || strings.Contains(text, checkboxMark):
		return FieldKind{Kind: Checkbox, Options: ExtractOptions(instruction)}
	case strings.Contains(text, "select one") || strings.Contains(text, "options:"):
		return FieldKind{Kind: Radio, Options: ExtractOptions(instruction)}
	case strings.Contains(text, "how many") || strings.Contains(text, "what was your") || strings.Contains(text, "percentage"):
		return FieldKind{Kind: Number}
	case strings.Contains(text, "calculate:") || strings.Contains(text, "÷") || strings.Contains(text, "×"):
		return FieldKind{Kind: Calculation, Formula: instruction}
	}
	return FieldKind{Kind: FreeText}
}

// ExtractOptions pulls choices out of an instruction: every line starting
// with a ☐ mark, and the "/"-separated list after "Options:". The
// "Options:" label is matched case-sensitively. Choices are trimmed and
// empty ones are dropped, so "A//B" and a bare ☐ line add no blank choice.
func ExtractOptions(instruction string) []string {
	var options []string
	for _, line := range strings.Split(instruction, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, checkboxMark) {
			if opt := strings.TrimSpace(strings.TrimPrefix(trimmed, checkboxMark)); opt != "" {
				options = append(options, opt)
			}
		}
		if _, after, ok := strings.Cut(line, "Options:"); ok {
			for _, opt := range strings.Split(after, "/") {
				if opt = strings.TrimSpace(opt); opt != "" {
					options = append(options, opt)
				}
			}
		}
	}
	return options
}
