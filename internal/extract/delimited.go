package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// extractDelimited reads every record. Rows may have differing field counts;
// callers validate shape against the header.
func extractDelimited(r io.Reader, sep rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse delimited: %w", err)
		}
		for i, cell := range rec {
			if !utf8.ValidString(cell) {
				rec[i] = strings.ToValidUTF8(cell, "\ufffd")
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
