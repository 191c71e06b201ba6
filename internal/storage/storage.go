// Package storage defines the persistence interface for the product catalog and item embeddings.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrNotFound is returned when a product row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines catalog persistence operations.
type Storage interface {
	// Product operations
	UpsertProducts(ctx context.Context, products []models.Product) error
	GetProduct(ctx context.Context, sku string) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]models.Product, error)

	// Embedding operations
	ReplaceEmbeddings(ctx context.Context, rows []models.ItemEmbedding) error
	ListEmbeddings(ctx context.Context) ([]models.ItemEmbedding, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)
	CountEmbeddings(ctx context.Context) (int64, error)

	Close() error
}
