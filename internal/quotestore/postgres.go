package quotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/pkg/freight"
	"go.uber.org/zap"
)

// PostgresStore persists quote records in Postgres. Candidate sets are kept
// as a JSONB document per record, mirroring their wire shape; prices stay
// strings inside the document so no precision is lost.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *otelzap.Logger
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool, logger *otelzap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the quote table and its lookup index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS freight_quotes (
    id          UUID PRIMARY KEY,
    postal_code TEXT NOT NULL,
    results     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS freight_quotes_cep_created_idx
    ON freight_quotes (postal_code, created_at DESC);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: migrate: %v", freight.ErrPersistence, err)
	}
	return nil
}

// Lookup returns the requested service's candidate from the newest
// non-expired record for the postal code. JSONB containment narrows the
// scan to records that actually carry the service.
func (s *PostgresStore) Lookup(ctx context.Context, cep string, service freight.Service) (*freight.CandidateQuote, error) {
	filter, err := json.Marshal([]map[string]freight.Service{{"service": service}})
	if err != nil {
		return nil, fmt.Errorf("%w: lookup filter: %v", freight.ErrPersistence, err)
	}

	const query = `
SELECT results
FROM freight_quotes
WHERE postal_code = $1
  AND created_at > $2
  AND results @> $3
ORDER BY created_at DESC
LIMIT 1`

	cutoff := time.Now().Add(-RetentionWindow)

	var raw []byte
	err = s.pool.QueryRow(ctx, query, cep, cutoff, filter).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup: %v", freight.ErrPersistence, err)
	}

	var candidates []freight.CandidateQuote
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("%w: decode record: %v", freight.ErrPersistence, err)
	}
	for _, c := range candidates {
		if c.Service == service {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

// Insert appends a new record with the full candidate set.
func (s *PostgresStore) Insert(ctx context.Context, cep string, candidates []freight.CandidateQuote) error {
	if len(candidates) == 0 {
		return ErrEmptyCandidates
	}

	results, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", freight.ErrPersistence, err)
	}

	const query = `
INSERT INTO freight_quotes (id, postal_code, results, created_at)
VALUES ($1, $2, $3, now())`

	if _, err := s.pool.Exec(ctx, query, uuid.New(), cep, results); err != nil {
		return fmt.Errorf("%w: insert: %v", freight.ErrPersistence, err)
	}
	return nil
}

// Sweep deletes records past the retention window.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	const query = `DELETE FROM freight_quotes WHERE created_at <= $1`

	tag, err := s.pool.Exec(ctx, query, time.Now().Add(-RetentionWindow))
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %v", freight.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

// RunSweeper deletes expired records on an interval until the context is
// cancelled. Lookup already filters by age, so the sweeper only reclaims
// space and may safely lag.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, logger *otelzap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := store.Sweep(ctx)
			if err != nil {
				logger.Warn("Quote sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("Swept expired quote records", zap.Int64("removed", removed))
			}
		}
	}
}

var _ Store = (*PostgresStore)(nil)
