package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadTable reads comma-separated text whose first line is the header.
// Blank lines are skipped, short rows are padded with empty cells and
// surplus cells are dropped. Cell values are kept verbatim.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, ValidationErrors{{Kind: KindParseError, Message: fmt.Sprintf("CSV parsing error: %v", err)}}
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	table := Table{Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, ValidationErrors{{Kind: KindParseError, Message: fmt.Sprintf("CSV parsing error: %v", err)}}
		}
		row := make(RawRow, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if _, dup := row[col]; dup {
				continue
			}
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
