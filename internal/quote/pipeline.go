// Package quote implements the quote-or-cache decision pipeline: serve a
// recent cached quote when one exists, otherwise fetch from the carrier,
// normalize, persist the full candidate set, and return the requested
// service.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/internal/quotestore"
	"github.com/vendalivre/frete/internal/telemetry"
	"github.com/vendalivre/frete/pkg/freight"
	"go.uber.org/zap"
)

// Request is one inbound quote request, prior to validation.
type Request struct {
	PostalCode string
	Service    string
	Packages   []freight.Package
	Options    freight.ShipmentOptions
}

// Result is the quoted price and delivery estimate for the requested
// service.
type Result struct {
	Service      freight.Service
	Price        decimal.Decimal
	DeliveryDays int
}

// Pipeline orchestrates quoting. It only ever reads or creates quote
// records, never mutates one.
type Pipeline struct {
	store    quotestore.Store
	provider freight.RateProvider
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates a quote pipeline.
func New(store quotestore.Store, provider freight.RateProvider, logger *otelzap.Logger, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{
		store:    store,
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// Quote resolves a freight quote. A cache hit short-circuits before any
// outbound call; a miss costs exactly one carrier call and one store write.
// Invalid input never reaches the carrier.
func (p *Pipeline) Quote(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	cep, service, packages, err := p.validate(req)
	if err != nil {
		p.metrics.RecordRequest("quote", "invalid", time.Since(start).Seconds())
		return nil, err
	}

	cached, err := p.store.Lookup(ctx, cep, service)
	if err != nil {
		p.logger.Error("Quote cache lookup failed", zap.Error(err), zap.String("cep", cep))
		p.metrics.RecordRequest("quote", "error", time.Since(start).Seconds())
		return nil, err
	}
	if cached != nil {
		p.metrics.RecordCacheLookup(true)
		p.metrics.RecordRequest("quote", "hit", time.Since(start).Seconds())
		p.logger.Info("Quote served from cache",
			zap.String("cep", cep),
			zap.String("service", string(service)),
		)
		return &Result{Service: service, Price: cached.Price, DeliveryDays: cached.DeliveryDays}, nil
	}
	p.metrics.RecordCacheLookup(false)

	sheet, err := p.provider.FetchRates(ctx, &freight.RateRequest{
		DestinationCEP: cep,
		Packages:       packages,
		Options:        req.Options,
	})
	if err != nil {
		p.metrics.RecordCarrierError(p.provider.Name(), errorType(err))
		p.metrics.RecordRequest("quote", "error", time.Since(start).Seconds())
		return nil, err
	}

	candidates := freight.Normalize(sheet)
	if len(candidates) == 0 {
		p.metrics.RecordRequest("quote", "not_found", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: carrier returned no usable rates for %s", freight.ErrServiceNotAvailable, cep)
	}

	var match *freight.CandidateQuote
	for i := range candidates {
		if candidates[i].Service == service {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		p.metrics.RecordRequest("quote", "not_found", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s not offered for %s", freight.ErrServiceNotAvailable, service, cep)
	}

	// Persist every normalized candidate, not just the requested one, so a
	// later request for the other service reuses this fetch.
	if err := p.store.Insert(ctx, cep, candidates); err != nil {
		p.logger.Error("Quote record insert failed", zap.Error(err), zap.String("cep", cep))
		p.metrics.RecordRequest("quote", "error", time.Since(start).Seconds())
		return nil, err
	}

	p.metrics.RecordRequest("quote", "miss", time.Since(start).Seconds())
	p.logger.Info("Quote fetched from carrier",
		zap.String("cep", cep),
		zap.String("service", string(service)),
		zap.Int("candidates", len(candidates)),
	)
	return &Result{Service: service, Price: match.Price, DeliveryDays: match.DeliveryDays}, nil
}

// validate applies the client-input rules: an 8-digit destination postal
// code, a known service, and at least one package with non-negative
// dimensions. Omitted dimensions get the carrier minimums.
func (p *Pipeline) validate(req Request) (string, freight.Service, []freight.Package, error) {
	cep := freight.SanitizeCEP(req.PostalCode)
	if len(cep) != 8 {
		return "", "", nil, fmt.Errorf("%w: destination postal code must have 8 digits", freight.ErrInvalidRequest)
	}

	service, err := freight.ParseService(req.Service)
	if err != nil {
		return "", "", nil, err
	}

	if len(req.Packages) == 0 {
		return "", "", nil, fmt.Errorf("%w: at least one package is required", freight.ErrInvalidRequest)
	}
	packages := make([]freight.Package, len(req.Packages))
	for i, pkg := range req.Packages {
		if !pkg.Valid() {
			return "", "", nil, fmt.Errorf("%w: package %d has negative dimensions", freight.ErrInvalidRequest, i)
		}
		packages[i] = pkg.WithDefaults()
	}

	return cep, service, packages, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, freight.ErrCarrierUnavailable):
		return "unavailable"
	case errors.Is(err, freight.ErrServiceNotAvailable):
		return "not_quotable"
	default:
		return "other"
	}
}
