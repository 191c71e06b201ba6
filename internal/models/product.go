// Package models defines core data structures for products and recommendation responses.
package models

// Product is catalog metadata for a single SKU. It is used for rendering only;
// retrieval never reads it.
type Product struct {
	SKU         string  `json:"sku" db:"sku"`
	Name        string  `json:"name" db:"name"`
	Brand       string  `json:"brand,omitempty" db:"brand"`
	Price       float64 `json:"price,omitempty" db:"price"`
	Description string  `json:"description,omitempty" db:"description"`
	Category    string  `json:"category,omitempty" db:"category"`
}

// ItemEmbedding is one row of the per-item embedding table.
type ItemEmbedding struct {
	Position int       `json:"position" db:"position"`
	SKU      string    `json:"sku" db:"sku"`
	Vector   []float32 `json:"-" db:"vector"`
}
