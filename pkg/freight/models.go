package freight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Service is a named shipping product offered by the carrier.
type Service string

const (
	// ServicePAC is the economy service.
	ServicePAC Service = "PAC"
	// ServiceSEDEX is the express service.
	ServiceSEDEX Service = "SEDEX"
)

// carrierServiceIDs maps each service to the numeric code the carrier
// expects on outbound rate requests.
var carrierServiceIDs = map[Service]string{
	ServicePAC:   "1",
	ServiceSEDEX: "2",
}

// Services returns the closed set of supported services, in the order they
// are requested from the carrier.
func Services() []Service {
	return []Service{ServicePAC, ServiceSEDEX}
}

// CarrierID returns the carrier-specific numeric code for the service.
func (s Service) CarrierID() string {
	return carrierServiceIDs[s]
}

// ParseService resolves a caller-supplied service name, case-insensitively
// but by exact name. Anything outside the supported set is a client error
// and is never sent to the carrier.
func ParseService(name string) (Service, error) {
	candidate := Service(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := carrierServiceIDs[candidate]; !ok {
		return "", fmt.Errorf("%w: unknown service %q", ErrInvalidRequest, name)
	}
	return candidate, nil
}

// MatchService resolves a carrier-reported service label by case-insensitive
// substring, so labels like "SEDEX 10" still map to the base service. This
// is only for normalizing carrier output; caller input goes through
// ParseService.
func MatchService(label string) (Service, bool) {
	upper := strings.ToUpper(label)
	for _, s := range Services() {
		if strings.Contains(upper, string(s)) {
			return s, true
		}
	}
	return "", false
}

// DeliveryUnknown marks a quote where the carrier reported no delivery
// estimate.
const DeliveryUnknown = 0

// CandidateQuote is one normalized rate for a destination. Price is an
// exact decimal and round-trips through JSON as a quoted string.
type CandidateQuote struct {
	Service      Service         `json:"service"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"delivery,omitempty"`
}

// HasDeliveryEstimate reports whether the carrier gave a delivery estimate.
func (q CandidateQuote) HasDeliveryEstimate() bool {
	return q.DeliveryDays != DeliveryUnknown
}

// Carrier minimums, applied when a caller omits a package dimension.
const (
	DefaultWeightKG = 0.3
	DefaultWidthCM  = 11.0
	DefaultHeightCM = 2.0
	DefaultLengthCM = 16.0
)

// Package holds the dimensions of one package to quote. Values are in
// centimeters and kilograms.
type Package struct {
	Weight float64 `json:"weight"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
}

// WithDefaults fills omitted dimensions with the carrier minimums.
func (p Package) WithDefaults() Package {
	if p.Weight == 0 {
		p.Weight = DefaultWeightKG
	}
	if p.Width == 0 {
		p.Width = DefaultWidthCM
	}
	if p.Height == 0 {
		p.Height = DefaultHeightCM
	}
	if p.Length == 0 {
		p.Length = DefaultLengthCM
	}
	return p
}

// Valid reports whether all dimensions are non-negative.
func (p Package) Valid() bool {
	return p.Weight >= 0 && p.Width >= 0 && p.Height >= 0 && p.Length >= 0
}

// ShipmentOptions are carrier options forwarded on the outbound call.
type ShipmentOptions struct {
	Receipt bool `json:"receipt"`
	OwnHand bool `json:"own_hand"`
}

// SanitizeCEP strips everything but digits from a postal code, so
// "01310-930" and "01310930" are equivalent.
func SanitizeCEP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
