//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFAISSIndex_MissingFile(t *testing.T) {
	_, err := LoadFAISSIndex("/nonexistent/path/index.faiss", 3)
	if !errors.Is(err, ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestLoadFAISSIndex_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.faiss")
	if err := os.WriteFile(path, []byte("not a faiss index"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFAISSIndex(path, 3)
	if !errors.Is(err, ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestFAISSIndex_Type(t *testing.T) {
	var idx FAISSIndex
	if got := idx.Type(); got != "faiss" {
		t.Errorf("Type() = %q, want %q", got, "faiss")
	}
}
