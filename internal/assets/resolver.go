// Package assets resolves product images on disk.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoResource is returned when no strategy can resolve a SKU.
var ErrNoResource = errors.New("no resource")

// Strategy resolves a SKU to a file path.
type Strategy interface {
	Resolve(sku string) (string, bool)
}

// Resolver tries its strategies in order; the first hit wins.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a resolver over strategies.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewDirResolver creates a resolver with one DirStrategy per directory, in order.
func NewDirResolver(dirs, extensions []string) *Resolver {
	strategies := make([]Strategy, 0, len(dirs))
	for _, dir := range dirs {
		strategies = append(strategies, &DirStrategy{Dir: dir, Extensions: extensions})
	}
	return NewResolver(strategies...)
}

// Resolve returns the path of the first resource found for sku.
func (r *Resolver) Resolve(sku string) (string, error) {
	if r != nil {
		for _, s := range r.strategies {
			if path, ok := s.Resolve(sku); ok {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoResource, sku)
}

// Len returns the number of strategies.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.strategies)
}

// DirStrategy looks for <Dir>/<sku><ext> for each extension in order.
type DirStrategy struct {
	Dir        string
	Extensions []string
}

// Resolve implements Strategy. SKUs containing path separators never match.
func (d *DirStrategy) Resolve(sku string) (string, bool) {
	if sku == "" || sku == "." || sku == ".." || strings.ContainsAny(sku, `/\`) {
		return "", false
	}
	for _, ext := range d.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		path := filepath.Join(d.Dir, sku+ext)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
