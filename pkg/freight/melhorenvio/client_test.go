package melhorenvio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/pkg/freight"
	"github.com/vendalivre/frete/pkg/freight/melhorenvio"
	"go.uber.org/zap"
)

func newTestClient(mockClient *melhorenvio.MockAPIClient) *melhorenvio.Client {
	logger := otelzap.New(zap.NewNop())
	return melhorenvio.NewWithAPIClient(
		melhorenvio.Config{OriginCEP: "90570020"},
		mockClient,
		logger,
		nil,
	)
}

func TestClient_FetchRates_Success(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &freight.RateRequest{
		DestinationCEP: "01310930",
		Packages:       []freight.Package{{Weight: 0.5, Width: 15, Height: 10, Length: 20}},
	}

	sheet, err := client.FetchRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, sheet.Lines, 2)
	assert.Equal(t, "PAC", sheet.Lines[0].Name)
	assert.Equal(t, "22,10", sheet.Lines[0].Price)
	assert.Equal(t, 7, sheet.Lines[0].DeliveryMax)
	assert.Equal(t, "SEDEX", sheet.Lines[1].Name)
}

func TestClient_FetchRates_RequestShape(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	var captured *melhorenvio.CalculateRequest
	mockAPI.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		captured = req
		return []melhorenvio.QuoteItem{}, nil
	}

	client := newTestClient(mockAPI)
	req := &freight.RateRequest{
		DestinationCEP: "01310930",
		Packages:       []freight.Package{{Weight: 1, Width: 11, Height: 2, Length: 16}},
		Options:        freight.ShipmentOptions{Receipt: true},
	}

	_, err := client.FetchRates(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "90570020", captured.From.PostalCode)
	assert.Equal(t, "01310930", captured.To.PostalCode)
	assert.Equal(t, "1,2", captured.Services)
	require.Len(t, captured.Packages, 1)
	assert.Equal(t, 1.0, captured.Packages[0].Weight)
	assert.True(t, captured.Options.Receipt)
	assert.False(t, captured.Options.OwnHand)
}

func TestClient_FetchRates_DropsErroredItems(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	mockAPI.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		return []melhorenvio.QuoteItem{
			{ID: 1, Name: "PAC", Error: "Servico indisponivel para o trecho informado"},
			{ID: 2, Name: "SEDEX", Price: "45,90", DeliveryRange: &melhorenvio.DeliveryRange{Min: 1, Max: 3}},
		}, nil
	}

	client := newTestClient(mockAPI)
	sheet, err := client.FetchRates(context.Background(), &freight.RateRequest{DestinationCEP: "01310930"})

	require.NoError(t, err)
	require.Len(t, sheet.Lines, 1)
	assert.Equal(t, "SEDEX", sheet.Lines[0].Name)
}

func TestClient_FetchRates_FallsBackToCustomPrice(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	mockAPI.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		return []melhorenvio.QuoteItem{
			{ID: 1, Name: "PAC", CustomPrice: "19,90", DeliveryTime: 6},
		}, nil
	}

	client := newTestClient(mockAPI)
	sheet, err := client.FetchRates(context.Background(), &freight.RateRequest{DestinationCEP: "01310930"})

	require.NoError(t, err)
	require.Len(t, sheet.Lines, 1)
	assert.Equal(t, "19,90", sheet.Lines[0].Price)
	assert.Equal(t, 6, sheet.Lines[0].DeliveryDays)
}

func TestClient_FetchRates_AuthFailure(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	mockAPI.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		return nil, &melhorenvio.APIError{Code: "HTTP_401", Message: "Unauthenticated.", StatusCode: 401}
	}

	client := newTestClient(mockAPI)
	_, err := client.FetchRates(context.Background(), &freight.RateRequest{DestinationCEP: "01310930"})

	require.Error(t, err)
	assert.ErrorIs(t, err, freight.ErrCarrierUnavailable)
	assert.False(t, freight.IsRetryable(err))
}

func TestClient_FetchRates_UpstreamFailureIsRetryable(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)
	_, err := client.FetchRates(context.Background(), &freight.RateRequest{DestinationCEP: "01310930"})

	require.Error(t, err)
	assert.ErrorIs(t, err, freight.ErrCarrierUnavailable)
	assert.True(t, freight.IsRetryable(err))
}

func TestClient_FetchRates_CarrierRejection(t *testing.T) {
	mockAPI := melhorenvio.NewMockAPIClient()
	mockAPI.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		return nil, &melhorenvio.APIError{
			Code:       "HTTP_200",
			Message:    "Frete nao cotado para este CEP",
			StatusCode: 200,
		}
	}

	client := newTestClient(mockAPI)
	_, err := client.FetchRates(context.Background(), &freight.RateRequest{DestinationCEP: "99999999"})

	require.Error(t, err)
	assert.ErrorIs(t, err, freight.ErrServiceNotAvailable)
	assert.NotErrorIs(t, err, freight.ErrCarrierUnavailable)
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(melhorenvio.NewMockAPIClient())
	assert.Equal(t, "melhorenvio", client.Name())
}
