// Package melhorenvio provides integration with the Melhor Envio shipping
// rate API.
package melhorenvio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/pkg/freight"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "melhorenvio"

// Config holds Melhor Envio configuration. The origin postal code is fixed
// per deployment and travels with the client rather than with each request.
type Config struct {
	Token     string
	BaseURL   string
	UserAgent string
	OriginCEP string
	UseMock   bool // When true, uses the mock API client
}

// Client is the Melhor Envio rate provider. It implements
// freight.RateProvider and delegates the wire call to the underlying
// APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Melhor Envio client. If cfg.UseMock is true, it uses a
// mock API client; otherwise it talks to the real endpoint.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			Token:     cfg.Token,
			UserAgent: cfg.UserAgent,
			Timeout:   30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a client with a custom API client. This is
// useful for injecting mocks in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// FetchRates performs one calculate call requesting exactly the supported
// services and returns the raw rate sheet. Outcomes are classified at this
// boundary: a structured list is success, a carrier-side rejection maps to
// freight.ErrServiceNotAvailable, and transport or authentication failures
// map to freight.ErrCarrierUnavailable.
func (c *Client) FetchRates(ctx context.Context, req *freight.RateRequest) (*freight.RateSheet, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "melhorenvio.FetchRates")
		defer span.End()
	}

	c.logger.Info("Fetching Melhor Envio rates",
		zap.String("destination_cep", req.DestinationCEP),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &CalculateRequest{
		From:     Endpoint{PostalCode: c.config.OriginCEP},
		To:       Endpoint{PostalCode: req.DestinationCEP},
		Packages: packagesToAPI(req.Packages),
		Options: Options{
			Receipt: req.Options.Receipt,
			OwnHand: req.Options.OwnHand,
		},
		Services: requestedServices(),
	}

	items, err := c.apiClient.CalculateShipment(ctx, apiReq)
	if err != nil {
		classified := c.classify(err)
		c.logger.Error("Melhor Envio API error", zap.Error(classified))
		return nil, classified
	}

	return itemsToRateSheet(items), nil
}

// requestedServices joins the supported services' carrier IDs, e.g. "1,2".
func requestedServices() string {
	services := freight.Services()
	ids := make([]string, len(services))
	for i, s := range services {
		ids[i] = s.CarrierID()
	}
	return strings.Join(ids, ",")
}

func packagesToAPI(pkgs []freight.Package) []Package {
	result := make([]Package, len(pkgs))
	for i, p := range pkgs {
		result[i] = Package{
			Weight: p.Weight,
			Width:  p.Width,
			Height: p.Height,
			Length: p.Length,
		}
	}
	return result
}

// itemsToRateSheet maps raw quote items onto domain rate lines. Items the
// carrier flagged with an error are unserviceable and are dropped here; the
// normalizer never sees them.
func itemsToRateSheet(items []QuoteItem) *freight.RateSheet {
	lines := make([]freight.RateLine, 0, len(items))
	for _, it := range items {
		if it.Error != "" {
			continue
		}
		price := string(it.Price)
		if price == "" {
			price = string(it.CustomPrice)
		}
		line := freight.RateLine{
			Name:         it.Name,
			Price:        price,
			DeliveryDays: int(it.DeliveryTime),
		}
		if it.DeliveryRange != nil {
			line.DeliveryMax = int(it.DeliveryRange.Max)
		}
		lines = append(lines, line)
	}
	return &freight.RateSheet{Lines: lines}
}

// classify maps a wire-level failure into the freight error taxonomy.
// Authentication rejections and transport failures become carrier
// unavailability; a carrier-side rejection of the route (4xx validation or
// an error object inside a 2xx) means no service for this destination.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return freight.NewCarrierError(carrierName, "TRANSPORT", "request failed").
			WithRetryable(true).
			WithCause(errors.Join(freight.ErrCarrierUnavailable, err))
	}

	switch {
	case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
		return freight.NewCarrierError(carrierName, "AUTH_FAILED", apiErr.Message).
			WithStatusCode(apiErr.StatusCode).
			WithCause(freight.ErrCarrierUnavailable)
	case apiErr.StatusCode >= 500 || apiErr.StatusCode == 429:
		return freight.NewCarrierError(carrierName, "UPSTREAM", apiErr.Message).
			WithStatusCode(apiErr.StatusCode).
			WithRetryable(true).
			WithCause(freight.ErrCarrierUnavailable)
	default:
		// 2xx error object or 4xx validation: the route is not quotable,
		// which is not a fault of this system.
		return freight.NewCarrierError(carrierName, "NOT_QUOTABLE", apiErr.Message).
			WithStatusCode(apiErr.StatusCode).
			WithCause(freight.ErrServiceNotAvailable)
	}
}
