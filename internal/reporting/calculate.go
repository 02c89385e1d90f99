package reporting

import (
	"math"
	"strconv"
	"strings"
)

// Calculation input names.
const (
	InputStaffLeft    = "staffLeft"
	InputAverageStaff = "averageStaff"
	InputNonCore      = "nonCore"
	InputCore         = "core"
)

// Calculate evaluates the supported formulas. Turnover formulas (mentioning
// "turnover" or "÷") give round(staffLeft/averageStaff*100); ratio formulas
// give nonCore/core rounded to two decimals. Missing or zero inputs, or an
// unsupported formula, report false.
func Calculate(formula string, inputs map[string]float64) (float64, bool) {
	if strings.Contains(formula, "turnover") || strings.Contains(formula, "÷") {
		left, avg := inputs[InputStaffLeft], inputs[InputAverageStaff]
		if left != 0 && avg > 0 {
			return roundHalfUp(left / avg * 100), true
		}
	}
	if strings.Contains(formula, "ratio") {
		nonCore, core := inputs[InputNonCore], inputs[InputCore]
		if nonCore != 0 && core > 0 {
			return roundHalfUp(nonCore/core*100) / 100, true
		}
	}
	return 0, false
}

// FormatCalculation renders a result the way it is stored as a response.
func FormatCalculation(formula string, value float64) string {
	s := "Calculated result: " + strconv.FormatFloat(value, 'f', -1, 64)
	if strings.Contains(formula, "percentage") {
		s += "%"
	}
	return s
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
