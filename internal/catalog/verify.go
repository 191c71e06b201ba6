package catalog

import (
	"fmt"

	"github.com/hyperjump/osusume/internal/vector"
)

// Verify checks that table and index describe the same rows: equal length and
// equal dimensionality. A mismatch means the artifacts come from different builds.
func Verify(table *EmbeddingTable, index vector.VectorIndex) error {
	if table.Len() != index.Size() {
		return fmt.Errorf("embedding table has %d rows, index has %d vectors", table.Len(), index.Size())
	}
	if table.Len() > 0 && table.Dimensions() != index.Dimensions() {
		return fmt.Errorf("%w: embedding table has %d dimensions, index has %d",
			vector.ErrDimensionMismatch, table.Dimensions(), index.Dimensions())
	}
	return nil
}
