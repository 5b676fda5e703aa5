// Package quotestore persists quote records: the time-bounded results of
// carrier rate fetches, keyed by destination postal code.
package quotestore

import (
	"context"
	"errors"
	"time"

	"github.com/vendalivre/frete/pkg/freight"
)

// RetentionWindow is how long a stored record remains visible to Lookup.
// Physical deletion may lag behind (the sweeper runs periodically); Lookup
// filters by age so an expired record is never returned either way.
const RetentionWindow = 24 * time.Hour

// ErrEmptyCandidates is returned when a record would violate the non-empty
// candidate invariant.
var ErrEmptyCandidates = errors.New("quote record requires at least one candidate")

// Store is the quote cache. It is append-only: Insert never deduplicates
// against prior records, and expiry is the only removal mechanism.
type Store interface {
	// Lookup returns the candidate for the requested service from the most
	// recently created non-expired record for the postal code, or nil when
	// no such record exists.
	Lookup(ctx context.Context, cep string, service freight.Service) (*freight.CandidateQuote, error)

	// Insert creates a new record holding the full candidate set. The set
	// must be non-empty. Records are immutable after creation.
	Insert(ctx context.Context, cep string, candidates []freight.CandidateQuote) error

	// Sweep physically deletes records older than the retention window and
	// returns how many were removed.
	Sweep(ctx context.Context) (int64, error)
}
