package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

// EmbeddingTable is the row-ordered per-item vector table. Row i holds the stored
// vector of the SKU at position i; the vector index is built from the same rows.
type EmbeddingTable struct {
	mapping    *Mapping
	dimensions int
	data       []float32
}

// NewEmbeddingTable builds a table from parallel SKU and vector slices.
func NewEmbeddingTable(skus []string, vectors [][]float32) (*EmbeddingTable, error) {
	if len(skus) != len(vectors) {
		return nil, fmt.Errorf("skus and vectors length mismatch: %d vs %d", len(skus), len(vectors))
	}
	mapping, err := NewMapping(skus)
	if err != nil {
		return nil, err
	}
	t := &EmbeddingTable{mapping: mapping}
	if len(vectors) == 0 {
		return t, nil
	}
	t.dimensions = len(vectors[0])
	if t.dimensions == 0 {
		return nil, fmt.Errorf("row 0 (%s) has no vector values", skus[0])
	}
	t.data = make([]float32, 0, len(vectors)*t.dimensions)
	for i, vec := range vectors {
		if len(vec) != t.dimensions {
			return nil, fmt.Errorf("row %d (%s) has %d values, expected %d", i, skus[i], len(vec), t.dimensions)
		}
		t.data = append(t.data, vec...)
	}
	return t, nil
}

// Mapping returns the SKU/position bijection of the table.
func (t *EmbeddingTable) Mapping() *Mapping { return t.mapping }

// Vector returns the stored vector at pos, or nil when pos is out of range.
// The returned slice aliases the table and must not be modified.
func (t *EmbeddingTable) Vector(pos int) []float32 {
	if pos < 0 || pos >= t.mapping.Len() {
		return nil
	}
	start := pos * t.dimensions
	return t.data[start : start+t.dimensions : start+t.dimensions]
}

// Vectors returns every row as a separate slice, in position order.
func (t *EmbeddingTable) Vectors() [][]float32 {
	out := make([][]float32, t.Len())
	for i := range out {
		out[i] = t.Vector(i)
	}
	return out
}

// Rows returns the table as storage rows.
func (t *EmbeddingTable) Rows() []models.ItemEmbedding {
	out := make([]models.ItemEmbedding, t.Len())
	for i := range out {
		sku, _ := t.mapping.SKU(i)
		out[i] = models.ItemEmbedding{Position: i, SKU: sku, Vector: t.Vector(i)}
	}
	return out
}

// Dimensions returns the vector length, 0 for an empty table.
func (t *EmbeddingTable) Dimensions() int { return t.dimensions }

// Len returns the number of rows.
func (t *EmbeddingTable) Len() int { return t.mapping.Len() }

// LoadEmbeddingTable reads the table from a CSV/TSV/XLSX file with a header of
// "sku" followed by one column per dimension, or from the item_embeddings table
// of a SQLite catalog (.db, .sqlite, .sqlite3).
func LoadEmbeddingTable(path string) (*EmbeddingTable, error) {
	if isSQLite(path) {
		return loadEmbeddingsSQLite(path)
	}
	rows, err := extract.NewExtractor().Extract(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding table %s: %w", path, err)
	}
	t, err := embeddingTableFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("embedding table %s: %w", path, err)
	}
	return t, nil
}

func embeddingTableFromRows(rows [][]string) (*EmbeddingTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := rows[0]
	skuCol := columnIndex(header, "sku")
	if skuCol < 0 {
		return nil, fmt.Errorf("header has no sku column")
	}
	dims := len(header) - 1
	if dims <= 0 {
		return nil, fmt.Errorf("header has no vector columns")
	}

	var (
		skus    []string
		vectors [][]float32
	)
	for i, row := range rows[1:] {
		line := i + 2
		if blankRow(row) {
			continue
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: %d cells, header has %d", line, len(row), len(header))
		}
		vec := make([]float32, 0, dims)
		for col, cell := range row {
			if col == skuCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 32)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[col], err)
			}
			vec = append(vec, float32(v))
		}
		skus = append(skus, strings.TrimSpace(row[skuCol]))
		vectors = append(vectors, vec)
	}
	return NewEmbeddingTable(skus, vectors)
}

func loadEmbeddingsSQLite(path string) (*EmbeddingTable, error) {
	store, err := openExistingSQLite(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rows, err := store.ListEmbeddings(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	skus := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		if row.Position != i {
			return nil, fmt.Errorf("embedding positions not contiguous: row %d has position %d", i, row.Position)
		}
		skus[i] = row.SKU
		vectors[i] = row.Vector
	}
	return NewEmbeddingTable(skus, vectors)
}

// openExistingSQLite refuses to create an empty database for a mistyped artifact path.
func openExistingSQLite(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	return storage.NewSQLiteStorage(path)
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func columnIndex(header []string, names ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
