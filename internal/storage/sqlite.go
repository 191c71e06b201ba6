package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		sku TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS item_embeddings (
		position INTEGER PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertProducts inserts or replaces products in a transaction.
func (s *SQLiteStorage) UpsertProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (sku, name, brand, price, description, category)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sku) DO UPDATE SET
		   name = excluded.name, brand = excluded.brand, price = excluded.price,
		   description = excluded.description, category = excluded.category`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.SKU, p.Name, p.Brand, p.Price, p.Description, p.Category); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	return tx.Commit()
}

// GetProduct returns a product by SKU, or ErrNotFound.
func (s *SQLiteStorage) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT sku, name, brand, price, description, category
		 FROM products WHERE sku = ?`, sku,
	).Scan(&p.SKU, &p.Name, &p.Brand, &p.Price, &p.Description, &p.Category)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", sku, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products ordered by SKU with offset and limit. A non-positive limit returns all rows.
func (s *SQLiteStorage) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sku, name, brand, price, description, category
		 FROM products ORDER BY sku LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Brand, &p.Price, &p.Description, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ReplaceEmbeddings swaps the whole embedding table in one transaction.
// Row positions are taken from the input; they must be unique, as must SKUs.
func (s *SQLiteStorage) ReplaceEmbeddings(ctx context.Context, rows []models.ItemEmbedding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_embeddings`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO item_embeddings (position, sku, dimensions, vector) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Position, row.SKU, len(row.Vector), EncodeVector(row.Vector)); err != nil {
			return fmt.Errorf("insert embedding %s at %d: %w", row.SKU, row.Position, err)
		}
	}
	return tx.Commit()
}

// ListEmbeddings returns every embedding row ordered by position.
func (s *SQLiteStorage) ListEmbeddings(ctx context.Context) ([]models.ItemEmbedding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, sku, dimensions, vector FROM item_embeddings ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ItemEmbedding
	for rows.Next() {
		var (
			row  models.ItemEmbedding
			dims int
			blob []byte
		)
		if err := rows.Scan(&row.Position, &row.SKU, &dims, &blob); err != nil {
			return nil, err
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("embedding %s: %w", row.SKU, err)
		}
		if len(vec) != dims {
			return nil, fmt.Errorf("embedding %s: blob holds %d values, row declares %d", row.SKU, len(vec), dims)
		}
		row.Vector = vec
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountProducts returns the total number of products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// CountEmbeddings returns the total number of embedding rows.
func (s *SQLiteStorage) CountEmbeddings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_embeddings`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
