package vector

import "github.com/viant/vec/search"

// ExactDistance returns the distance between a and b under metric. Vectors must have equal length.
func ExactDistance(metric Metric, a, b []float32) float64 {
	switch metric {
	case MetricInnerProduct:
		return -InnerProduct(a, b)
	default:
		return float64(search.Float32s(a).EuclideanDistance(b))
	}
}

// InnerProduct returns the dot product of a and b.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
