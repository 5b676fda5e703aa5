package melhorenvio

import (
	"context"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing and for
// running the service without sandbox credentials.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCalculateShipment func(ctx context.Context, req *CalculateRequest) ([]QuoteItem, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CalculateShipment returns mock quote items shaped like real calculate
// output: comma-decimal string prices and min/max delivery ranges.
func (m *MockAPIClient) CalculateShipment(ctx context.Context, req *CalculateRequest) ([]QuoteItem, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error", StatusCode: 500}
	}

	if m.OnCalculateShipment != nil {
		return m.OnCalculateShipment(ctx, req)
	}

	return []QuoteItem{
		{
			ID:            1,
			Name:          "PAC",
			Price:         "22,10",
			Currency:      "R$",
			DeliveryRange: &DeliveryRange{Min: 5, Max: 7},
			Company:       &Company{ID: 1, Name: "Correios"},
		},
		{
			ID:            2,
			Name:          "SEDEX",
			Price:         "45,90",
			Currency:      "R$",
			DeliveryRange: &DeliveryRange{Min: 1, Max: 3},
			Company:       &Company{ID: 1, Name: "Correios"},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
