package vector

import "fmt"

// IndexType represents the on-disk index format.
type IndexType string

const (
	// IndexTypeFlat is the native exact index written by Build and Save.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS loads an index produced by the FAISS toolchain.
	// Requires FAISS library and build tag -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// Open loads a read-only index of the given type from path.
// Supported types: "flat" (default), "faiss".
// dimensions, when positive, must match the artifact or ErrCorruptIndex is returned.
func Open(indexType, path string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return LoadFlatIndex(path, dimensions)
	case IndexTypeFAISS:
		return LoadFAISSIndex(path, dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss)", indexType)
	}
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	return faissAvailable
}
