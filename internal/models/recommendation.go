package models

import "fmt"

// RecommendationResponse is the wire shape of both recommendation endpoints.
// Indexes holds SKUs nearest-first; Distances is parallel to it and only set on request.
type RecommendationResponse struct {
	Indexes   []string  `json:"indexes"`
	Distances []float64 `json:"distances,omitempty"`
	// Query echoes the SKU or text the list was computed for (CLI output only).
	Query string `json:"-"`
}

// TextQuery is the body of POST /api/v1/search.
type TextQuery struct {
	Query     string `json:"query"`
	Distances bool   `json:"distances,omitempty"`
}

// Validate rejects a missing query field. Whitespace-only text is left for the
// retrieval layer to reject so both endpoints report it identically.
func (q *TextQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}
