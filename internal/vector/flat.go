package vector

import (
	"bufio"
	"container/heap"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

const (
	flatMagic   = "OSVI"
	flatVersion = 1
	// ctxCheckInterval is how many rows are scanned between context checks.
	ctxCheckInterval = 4096
)

var headerSize = int64(binary.Size(flatHeader{}))

// flatHeader is the fixed-size prefix of a flat index artifact. The vector
// matrix follows as Count*Dimensions little-endian float32 values, row-major.
type flatHeader struct {
	Magic      [4]byte
	Version    uint16
	Metric     uint8
	Reserved   uint8
	BuildID    [16]byte
	Dimensions uint32
	Count      uint32
}

// FlatIndex is an exact nearest-neighbor index over a contiguous row-major matrix.
// It is immutable after Build or LoadFlatIndex, so Search needs no locking.
type FlatIndex struct {
	dimensions int
	count      int
	metric     Metric
	data       []float32
	buildID    uuid.UUID
}

// Build creates a flat index from vectors. Row position i is vectors[i]. This is the
// offline build step; the serving process only loads the saved artifact.
func Build(dimensions int, metric Metric, vectors [][]float32) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if _, err := metricCode(metric); err != nil {
		return nil, err
	}
	data := make([]float32, 0, len(vectors)*dimensions)
	for i, vec := range vectors {
		if len(vec) != dimensions {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(vec), dimensions)
		}
		data = append(data, vec...)
	}
	return &FlatIndex{
		dimensions: dimensions,
		count:      len(vectors),
		metric:     metric,
		data:       data,
		buildID:    uuid.New(),
	}, nil
}

// Search returns the k nearest rows to query. Ties are broken by ascending position.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkQuery(query, f.dimensions, k, f.count); err != nil {
		return nil, err
	}
	h := make(neighborHeap, 0, k)
	for pos := 0; pos < f.count; pos++ {
		if pos%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d := ExactDistance(f.metric, query, f.row(pos))
		if math.IsNaN(d) {
			d = math.Inf(1)
		}
		n := Neighbor{Position: pos, Distance: d}
		if len(h) < k {
			heap.Push(&h, n)
			continue
		}
		if worse(h[0], n) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}
	out := []Neighbor(h)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out, nil
}

func (f *FlatIndex) row(pos int) []float32 {
	start := pos * f.dimensions
	return f.data[start : start+f.dimensions : start+f.dimensions]
}

// Size returns the number of stored vectors.
func (f *FlatIndex) Size() int { return f.count }

// Dimensions returns the vector dimensionality.
func (f *FlatIndex) Dimensions() int { return f.dimensions }

// Metric returns the distance metric.
func (f *FlatIndex) Metric() Metric { return f.metric }

// Type returns the index type identifier.
func (f *FlatIndex) Type() string { return string(IndexTypeFlat) }

// BuildID identifies the build that produced this index. Row positions are only
// meaningful together with tables produced by the same build.
func (f *FlatIndex) BuildID() string { return f.buildID.String() }

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error { return nil }

// Save writes the index artifact to path, creating parent directories. The file is
// written to a temporary name and renamed so readers never see a partial artifact.
func (f *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(file)
	if _, err := f.WriteTo(w); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	return os.Rename(tmp, path)
}

// WriteTo serializes the index to w.
func (f *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	code, err := metricCode(f.metric)
	if err != nil {
		return 0, err
	}
	hdr := flatHeader{
		Version:    flatVersion,
		Metric:     code,
		BuildID:    f.buildID,
		Dimensions: uint32(f.dimensions),
		Count:      uint32(f.count),
	}
	copy(hdr.Magic[:], flatMagic)
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	written := headerSize
	for pos := 0; pos < f.count; pos++ {
		n, err := w.Write(float32SliceToBytes(f.row(pos)))
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write vector %d: %w", pos, err)
		}
	}
	return written, nil
}

// LoadFlatIndex reads an artifact written by Save. When dimensions is positive the
// artifact must declare exactly that dimensionality. All failures wrap ErrCorruptIndex.
func LoadFlatIndex(path string, dimensions int) (*FlatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCorruptIndex, path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrCorruptIndex, path, err)
	}

	r := bufio.NewReader(file)
	var hdr flatHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptIndex, err)
	}
	if string(hdr.Magic[:]) != flatMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, hdr.Magic[:])
	}
	if hdr.Version != flatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, hdr.Version)
	}
	metric, err := metricFromCode(hdr.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if hdr.Dimensions == 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrCorruptIndex)
	}
	if dimensions > 0 && int(hdr.Dimensions) != dimensions {
		return nil, fmt.Errorf("%w: artifact has %d dimensions, configured %d", ErrCorruptIndex, hdr.Dimensions, dimensions)
	}
	want := headerSize + int64(hdr.Count)*int64(hdr.Dimensions)*4
	if info.Size() != want {
		return nil, fmt.Errorf("%w: size %d bytes, header implies %d", ErrCorruptIndex, info.Size(), want)
	}

	dim := int(hdr.Dimensions)
	count := int(hdr.Count)
	data := make([]float32, count*dim)
	buf := make([]byte, dim*4)
	for pos := 0; pos < count; pos++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: read vector %d: %v", ErrCorruptIndex, pos, err)
		}
		copy(data[pos*dim:(pos+1)*dim], bytesToFloat32Slice(buf))
	}
	return &FlatIndex{
		dimensions: dim,
		count:      count,
		metric:     metric,
		data:       data,
		buildID:    uuid.UUID(hdr.BuildID),
	}, nil
}

func metricCode(m Metric) (uint8, error) {
	switch m {
	case MetricL2:
		return 0, nil
	case MetricInnerProduct:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown metric: %q", m)
	}
}

func metricFromCode(c uint8) (Metric, error) {
	switch c {
	case 0:
		return MetricL2, nil
	case 1:
		return MetricInnerProduct, nil
	default:
		return "", errors.New("unknown metric code")
	}
}

// worse reports whether a ranks after b: larger distance, or equal distance and larger position.
func worse(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Position > b.Position
}

// neighborHeap is a max-heap on (distance, position); the root is the current worst candidate.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
