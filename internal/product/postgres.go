package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore is the Postgres-backed product store. Prices live in a
// NUMERIC column and cross the driver as text to stay exact.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the products table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS products (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    price      NUMERIC NOT NULL CHECK (price >= 0),
    sizes      TEXT[] NOT NULL,
    image      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	const query = `
SELECT id, name, price::text, sizes, image, created_at
FROM products
ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	const query = `
SELECT id, name, price::text, sizes, image, created_at
FROM products
WHERE id = $1`

	p, err := scanProduct(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) Create(ctx context.Context, p *Product) error {
	const query = `
INSERT INTO products (id, name, price, sizes, image, created_at)
VALUES ($1, $2, $3::numeric, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query, p.ID, p.Name, p.Price.String(), p.Sizes, p.Image, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Product) error {
	const query = `
UPDATE products
SET name = $2, price = $3::numeric, sizes = $4, image = $5
WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, p.ID, p.Name, p.Price.String(), p.Sizes, p.Image)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p        Product
		priceRaw string
	)
	if err := row.Scan(&p.ID, &p.Name, &priceRaw, &p.Sizes, &p.Image, &p.CreatedAt); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}
	p.Price = price
	return &p, nil
}

var _ Store = (*PostgresStore)(nil)
