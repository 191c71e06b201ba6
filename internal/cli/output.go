// Package cli provides CLI output for Osusume.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// OutputFormat is the format for recommendation output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one SKU per line, for piping.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is the same JSON shape the HTTP API returns.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a flag value to an OutputFormat. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (supported: text, compact, json)", s)
	}
}

// WriteRecommendations writes resp to w in the given format. products is
// optional and only enriches text output.
func WriteRecommendations(w io.Writer, resp *models.RecommendationResponse, products *catalog.ProductCatalog, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case OutputCompact:
		for _, sku := range resp.Indexes {
			if _, err := fmt.Fprintln(w, sku); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeText(w, resp, products)
	}
}

func writeText(w io.Writer, resp *models.RecommendationResponse, products *catalog.ProductCatalog) error {
	if resp.Query != "" {
		fmt.Fprintf(w, "\n%d recommendations for %q\n\n", len(resp.Indexes), resp.Query)
	} else {
		fmt.Fprintf(w, "\n%d recommendations\n\n", len(resp.Indexes))
	}
	for i, sku := range resp.Indexes {
		line := fmt.Sprintf("%2d. %s", i+1, sku)
		if i < len(resp.Distances) {
			line += fmt.Sprintf("  (distance %.4f)", resp.Distances[i])
		}
		if p, ok := products.Get(sku); ok {
			line += "  " + describe(p)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func describe(p models.Product) string {
	s := utils.Truncate(p.Name, 60)
	if p.Brand != "" {
		s += " | " + p.Brand
	}
	if p.Price > 0 {
		s += fmt.Sprintf(" | %.2f", p.Price)
	}
	return s
}
