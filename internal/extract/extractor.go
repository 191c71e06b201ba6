// Package extract reads tabular rows from catalog and embedding table files.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor reads spreadsheet-like files into rows of cells.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) is a tabular format Extract can read.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}

// Extract reads the file at path and returns its rows, header first.
// CSV and TSV are read with encoding/csv; XLSX reads the first sheet.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string) ([][]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes parses content based on the given extension.
// ext should include the leading dot (e.g. ".csv").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = extractDelimited(bytes.NewReader(content), ',')
	case ".tsv":
		rows, err = extractDelimited(bytes.NewReader(content), '\t')
	case ".xlsx":
		rows, err = extractExcel(content)
	default:
		return nil, fmt.Errorf("unsupported table format %q (supported: .csv, .tsv, .xlsx)", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
