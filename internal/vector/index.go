// Package vector provides the read-only nearest-neighbor index over item embeddings.
package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimensionality.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrCorruptIndex is returned when an index artifact cannot be read or declares the wrong dimensionality.
	ErrCorruptIndex = errors.New("corrupt index")
	// ErrInvalidK is returned when k is outside [1, Size()].
	ErrInvalidK = errors.New("invalid k")
)

// VectorIndex is an immutable k-nearest-neighbor index. Implementations must be
// safe for concurrent Search calls.
type VectorIndex interface {
	// Search returns the k entries closest to query, ascending by distance.
	// Equal distances are ordered by ascending position.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Size() int
	Dimensions() int
	Metric() Metric
	Type() string
	Close() error
}

// Neighbor is a single search hit: the row position of the stored vector and its distance to the query.
type Neighbor struct {
	Position int
	Distance float64
}

// Metric is the distance function used by an index.
type Metric string

const (
	// MetricL2 is Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricInnerProduct ranks by descending inner product; distance is the negated dot product.
	MetricInnerProduct Metric = "ip"
)

// ParseMetric converts a config string to a Metric. Empty means l2.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, "":
		return MetricL2, nil
	case MetricInnerProduct:
		return MetricInnerProduct, nil
	default:
		return "", fmt.Errorf("unknown metric: %s (supported: l2, ip)", s)
	}
}

// tieMargin is how many extra candidates are requested from engines that cut
// ties at the k-th hit arbitrarily. A tie group wider than this at the
// boundary is still cut in engine order.
const tieMargin = 16

// searchWidth is the candidate count to request for k results.
func searchWidth(k, size int) int {
	return min(k+tieMargin, size)
}

// rankNeighbors orders candidates by (distance, position) and keeps the first k.
func rankNeighbors(ns []Neighbor, k int) []Neighbor {
	sort.SliceStable(ns, func(i, j int) bool { return worse(ns[j], ns[i]) })
	if len(ns) > k {
		ns = ns[:k]
	}
	return ns
}

func checkQuery(query []float32, dimensions, k, size int) error {
	if len(query) != dimensions {
		return fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), dimensions)
	}
	if k < 1 || k > size {
		return fmt.Errorf("%w: k=%d, index size %d", ErrInvalidK, k, size)
	}
	return nil
}
