package report

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"
)

// ExtractPDFText returns the text of every page, one line per text baseline
// and pages separated by a form feed. Glyph spacing is not recovered for
// fonts without width tables, so words on a line may run together.
func ExtractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		if pageIndex > 1 {
			builder.WriteString("\f")
		}
		lastY := -1.0
		for _, fragment := range page.Content().Text {
			if lastY >= 0 && fragment.Y != lastY {
				builder.WriteString("\n")
			}
			builder.WriteString(fragment.S)
			lastY = fragment.Y
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// PageCount reports the number of pages in a PDF.
func PageCount(content []byte) (n int, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
		}
	}()
	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}
