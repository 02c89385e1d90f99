package report

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/david/ywc-dashboard/internal/models"
)

// DiffQuarters returns a unified diff of two snapshots rendered as CSV.
// Identical snapshots give "".
func DiffQuarters(from, to models.QuarterSnapshot) (string, error) {
	var a, b bytes.Buffer
	if err := WriteCSV(&a, from.Data); err != nil {
		return "", err
	}
	if err := WriteCSV(&b, to.Data); err != nil {
		return "", err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a.String()),
		B:        difflib.SplitLines(b.String()),
		FromFile: from.Key,
		ToFile:   to.Key,
		Context:  1,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s..%s: %w", from.Key, to.Key, err)
	}
	return out, nil
}
