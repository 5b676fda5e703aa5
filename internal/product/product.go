// Package product holds the product catalog. The catalog is plain CRUD
// plumbing, unrelated to quoting beyond sharing the database.
package product

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product matches the given ID.
var ErrNotFound = errors.New("product not found")

// validSizes is the closed set of accepted garment sizes.
var validSizes = map[string]bool{
	"PP": true, "P": true, "M": true, "G": true, "GG": true,
}

// Product is one catalog entry.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Sizes     []string        `json:"size"`
	Image     string          `json:"image"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate returns field-level validation messages, empty when valid.
func (p *Product) Validate() map[string]string {
	problems := make(map[string]string)
	if p.Name == "" {
		problems["name"] = "name is required"
	}
	if p.Price.IsNegative() {
		problems["price"] = "price cannot be negative"
	}
	if len(p.Sizes) == 0 {
		problems["size"] = "at least one size is required"
	}
	for _, s := range p.Sizes {
		if !validSizes[s] {
			problems["size"] = "sizes must be one of PP, P, M, G, GG"
			break
		}
	}
	if p.Image == "" {
		problems["image"] = "image is required"
	}
	return problems
}

// Store defines product persistence.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
