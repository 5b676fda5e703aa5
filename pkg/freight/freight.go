// Package freight defines the freight quoting domain: the shipping services
// offered to customers, the canonical quote types, the rate normalizer, and
// the interface carrier integrations must implement.
package freight

import (
	"context"
)

// RateProvider is implemented by carrier integrations that can fetch live
// shipping rates for a destination.
type RateProvider interface {
	// Name returns the carrier identifier (e.g., "melhorenvio").
	Name() string

	// FetchRates performs a single outbound rate call and returns the raw
	// rate sheet as reported by the carrier. It never retries; callers
	// decide retry policy.
	FetchRates(ctx context.Context, req *RateRequest) (*RateSheet, error)
}

// RateRequest describes one rate fetch. The origin postal code is not part
// of the request: each provider carries its configured origin.
type RateRequest struct {
	DestinationCEP string
	Packages       []Package
	Options        ShipmentOptions
}

// RateSheet is a carrier's raw rate listing, prior to normalization. Line
// values are kept as reported so the normalizer owns all interpretation.
type RateSheet struct {
	Lines []RateLine
}

// RateLine is one carrier-reported rate. Price is the raw decimal text,
// which may use a comma as decimal separator. DeliveryDays holds a scalar
// estimate and DeliveryMax the upper bound of a range estimate; both are
// zero when the carrier omitted them.
type RateLine struct {
	Name         string
	Price        string
	DeliveryDays int
	DeliveryMax  int
}
