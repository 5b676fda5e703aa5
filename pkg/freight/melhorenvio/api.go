package melhorenvio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// APIClient defines the Melhor Envio API operations. The abstraction allows
// mock implementations during testing and the real HTTP implementation in
// production.
type APIClient interface {
	// CalculateShipment posts a rate calculation and returns the raw
	// quote items for the requested services.
	CalculateShipment(ctx context.Context, req *CalculateRequest) ([]QuoteItem, error)
}

// ============================================================================
// API Request/Response Types (match the Melhor Envio calculate endpoint)
// ============================================================================

// CalculateRequest is the body of POST /api/v2/me/shipment/calculate.
type CalculateRequest struct {
	From     Endpoint  `json:"from"`
	To       Endpoint  `json:"to"`
	Packages []Package `json:"packages"`
	Options  Options   `json:"options"`
	Services string    `json:"services"` // comma-joined service IDs, e.g. "1,2"
}

// Endpoint is an origin or destination.
type Endpoint struct {
	PostalCode string `json:"postal_code"`
}

// Package is one package to quote. Dimensions in cm, weight in kg.
type Package struct {
	Weight float64 `json:"weight"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
}

// Options are shipment add-ons.
type Options struct {
	Receipt bool `json:"receipt"`
	OwnHand bool `json:"own_hand"`
}

// QuoteItem is one rate line from the calculate response. The endpoint is
// loose about types: price arrives as a string or a number, the delivery
// estimate as a scalar or a {min,max} range, and unserviceable items carry
// an error field instead of a price.
type QuoteItem struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Price         FlexString     `json:"price"`
	CustomPrice   FlexString     `json:"custom_price"`
	Currency      string         `json:"currency"`
	DeliveryTime  FlexInt        `json:"delivery_time"`
	DeliveryRange *DeliveryRange `json:"delivery_range"`
	Error         string         `json:"error"`
	Company       *Company       `json:"company"`
}

// DeliveryRange is a min/max delivery estimate in days.
type DeliveryRange struct {
	Min FlexInt `json:"min"`
	Max FlexInt `json:"max"`
}

// Company identifies the underlying carrier for a quote item.
type Company struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// FlexString decodes a JSON string or number into its textual form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt decodes a JSON number or numeric string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("flexint: %w", err)
	}
	*f = FlexInt(v)
	return nil
}

// APIError represents an error reported by the Melhor Envio API. The API
// is inconsistent: sometimes {"error": "..."}, sometimes {"message": "..."}
// with a field map under "errors".
type APIError struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"-"`
	Fields     map[string][]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
