package product

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRow feeds canned column values to scanProduct, standing in for a
// pgx.Row without a live database.
type stubRow struct {
	id      uuid.UUID
	name    string
	price   string
	sizes   []string
	image   string
	created time.Time
}

func (r stubRow) Scan(dest ...any) error {
	*dest[0].(*uuid.UUID) = r.id
	*dest[1].(*string) = r.name
	*dest[2].(*string) = r.price
	*dest[3].(*[]string) = r.sizes
	*dest[4].(*string) = r.image
	*dest[5].(*time.Time) = r.created
	return nil
}

func TestScanProduct(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	p, err := scanProduct(stubRow{
		id:      id,
		name:    "Camiseta básica",
		price:   "49.90",
		sizes:   []string{"P", "M"},
		image:   "https://cdn.example.com/camiseta.png",
		created: created,
	})
	require.NoError(t, err)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Camiseta básica", p.Name)
	assert.Equal(t, "49.9", p.Price.String())
	assert.Equal(t, []string{"P", "M"}, p.Sizes)
	assert.Equal(t, created, p.CreatedAt)
}

func TestScanProductBadPrice(t *testing.T) {
	_, err := scanProduct(stubRow{price: "not-a-number"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode price")
}
