//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unsafe"
)

const faissAvailable = true

// FAISSIndex serves a prebuilt FAISS index file. Only flat (exact) FAISS
// indexes give the ordering guarantees callers rely on; approximate index
// types load but may return a different neighbor set.
type FAISSIndex struct {
	index      *C.FaissIndex
	dimensions int
	size       int
	metric     Metric
	// mu guards index against Close racing in-flight searches.
	mu sync.RWMutex
}

// LoadFAISSIndex reads a FAISS index written by faiss_write_index.
// All failures wrap ErrCorruptIndex.
func LoadFAISSIndex(path string, dimensions int) (*FAISSIndex, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var index *C.FaissIndex
	if ret := C.faiss_read_index_fname(cPath, 0, &index); ret != 0 {
		return nil, fmt.Errorf("%w: load FAISS index %s: %s", ErrCorruptIndex, path, faissLastError())
	}

	d := int(C.faiss_Index_d(index))
	if dimensions > 0 && d != dimensions {
		C.faiss_Index_free(index)
		return nil, fmt.Errorf("%w: artifact has %d dimensions, configured %d", ErrCorruptIndex, d, dimensions)
	}

	metric := MetricL2
	if C.faiss_Index_metric_type(index) == C.METRIC_INNER_PRODUCT {
		metric = MetricInnerProduct
	}

	return &FAISSIndex{
		index:      index,
		dimensions: d,
		size:       int(C.faiss_Index_ntotal(index)),
		metric:     metric,
	}, nil
}

// faissLastError returns the last FAISS error message.
func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Search returns the k nearest rows. FAISS reports squared L2 and raw inner
// product; both are converted to the same distances FlatIndex returns.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkQuery(query, f.dimensions, k, f.size); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return nil, fmt.Errorf("FAISS index closed")
	}

	n := searchWidth(k, f.size)
	distances := make([]float32, n)
	labels := make([]int64, n)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(n),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	out := make([]Neighbor, 0, n)
	for i := 0; i < n; i++ {
		if labels[i] < 0 {
			continue
		}
		d := float64(distances[i])
		if f.metric == MetricInnerProduct {
			d = -d
		} else {
			d = math.Sqrt(math.Max(d, 0))
		}
		out = append(out, Neighbor{Position: int(labels[i]), Distance: d})
	}
	return rankNeighbors(out, k), nil
}

// Size returns the number of stored vectors.
func (f *FAISSIndex) Size() int { return f.size }

// Dimensions returns the vector dimensionality.
func (f *FAISSIndex) Dimensions() int { return f.dimensions }

// Metric returns the metric the FAISS index was built with.
func (f *FAISSIndex) Metric() Metric { return f.metric }

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
