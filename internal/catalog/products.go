package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/models"
)

// ProductCatalog is read-only product metadata keyed by SKU. Retrieval never
// consults it; it only enriches responses for display.
type ProductCatalog struct {
	products map[string]models.Product
}

// NewProductCatalog indexes products by SKU. A repeated SKU is an error.
func NewProductCatalog(products []models.Product) (*ProductCatalog, error) {
	c := &ProductCatalog{products: make(map[string]models.Product, len(products))}
	for _, p := range products {
		if _, ok := c.products[p.SKU]; ok {
			return nil, fmt.Errorf("%w: product %q", ErrDuplicateIdentifier, p.SKU)
		}
		c.products[p.SKU] = p
	}
	return c, nil
}

// Get returns the product for sku and whether it exists. A nil catalog has no products.
func (c *ProductCatalog) Get(sku string) (models.Product, bool) {
	if c == nil {
		return models.Product{}, false
	}
	p, ok := c.products[sku]
	return p, ok
}

// Len returns the number of products.
func (c *ProductCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// All returns every product, in no particular order.
func (c *ProductCatalog) All() []models.Product {
	out := make([]models.Product, 0, c.Len())
	if c == nil {
		return out
	}
	for _, p := range c.products {
		out = append(out, p)
	}
	return out
}

// LoadProducts reads product metadata from CSV/TSV/XLSX (columns sku, name, brand,
// price, description, category; "dimension17" is accepted for brand) or from the
// products table of a SQLite catalog.
func LoadProducts(path string) (*ProductCatalog, error) {
	if isSQLite(path) {
		store, err := openExistingSQLite(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		products, err := store.ListProducts(context.Background(), 0, 0)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return NewProductCatalog(products)
	}

	rows, err := extract.NewExtractor().Extract(path)
	if err != nil {
		return nil, fmt.Errorf("read products %s: %w", path, err)
	}
	products, err := productsFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("products %s: %w", path, err)
	}
	return NewProductCatalog(products)
}

func productsFromRows(rows [][]string) ([]models.Product, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := rows[0]
	cols := struct{ sku, name, brand, price, description, category int }{
		sku:         columnIndex(header, "sku"),
		name:        columnIndex(header, "name"),
		brand:       columnIndex(header, "brand", "dimension17"),
		price:       columnIndex(header, "price"),
		description: columnIndex(header, "description"),
		category:    columnIndex(header, "category"),
	}
	if cols.sku < 0 {
		return nil, fmt.Errorf("header has no sku column")
	}

	var products []models.Product
	for i, row := range rows[1:] {
		line := i + 2
		if blankRow(row) {
			continue
		}
		p := models.Product{
			SKU:         cell(row, cols.sku),
			Name:        cell(row, cols.name),
			Brand:       cell(row, cols.brand),
			Description: cell(row, cols.description),
			Category:    cell(row, cols.category),
		}
		if p.SKU == "" {
			return nil, fmt.Errorf("line %d: blank sku", line)
		}
		if raw := cell(row, cols.price); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: price %q: %w", line, raw, err)
			}
			p.Price = price
		}
		products = append(products, p)
	}
	return products, nil
}

// cell returns the trimmed value at col; rows shorter than the header read as blank.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
