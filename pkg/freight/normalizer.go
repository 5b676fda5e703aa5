package freight

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize converts a raw carrier rate sheet into canonical candidate
// quotes.
//
// Only lines carrying both a name and a price are eligible, and only names
// matching a supported service survive. A range delivery estimate resolves
// to its upper bound, a scalar is taken as-is, and an absent estimate stays
// DeliveryUnknown rather than defaulting to a misleading number. Output
// preserves the carrier's line order. When the carrier reports the same
// service twice the first line wins; later duplicates are dropped.
//
// An empty or nil sheet yields an empty result, which callers treat as "no
// quotes available", not as a fault.
func Normalize(sheet *RateSheet) []CandidateQuote {
	if sheet == nil {
		return nil
	}

	var out []CandidateQuote
	seen := make(map[Service]bool, 2)
	for _, line := range sheet.Lines {
		if line.Name == "" || strings.TrimSpace(line.Price) == "" {
			continue
		}
		service, ok := MatchService(line.Name)
		if !ok {
			continue
		}
		if seen[service] {
			continue
		}
		price, err := ParsePrice(line.Price)
		if err != nil || price.IsNegative() {
			continue
		}

		days := line.DeliveryDays
		if line.DeliveryMax > 0 {
			days = line.DeliveryMax
		}
		if days < 0 {
			days = DeliveryUnknown
		}

		seen[service] = true
		out = append(out, CandidateQuote{
			Service:      service,
			Price:        price,
			DeliveryDays: days,
		})
	}
	return out
}

// ParsePrice parses carrier decimal text into an exact decimal. Carriers in
// comma-decimal locales report "23,50" or "1.234,56"; both forms are
// accepted without routing through binary floating point.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousand separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
