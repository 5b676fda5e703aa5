package melhorenvio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const calculatePath = "/api/v2/me/shipment/calculate"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CalculateShipment posts a rate calculation to the Melhor Envio API.
// The endpoint answers 200 with either a JSON array of quote items or an
// error object, so both shapes are handled here.
func (c *HTTPAPIClient) CalculateShipment(ctx context.Context, req *CalculateRequest) ([]QuoteItem, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, calculatePath, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calculate response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp.StatusCode, body)
	}

	var items []QuoteItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	// Not an array: the API rejected the calculation inside a 2xx.
	return nil, c.parseError(resp.StatusCode, body)
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	return c.httpClient.Do(req)
}

// parseError extracts error information from a response body.
func (c *HTTPAPIClient) parseError(statusCode int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.Code = fmt.Sprintf("HTTP_%d", statusCode)
		apiErr.StatusCode = statusCode
		return &apiErr
	}

	// Older error shape: {"error": "..."}
	var simpleErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &simpleErr); err == nil && simpleErr.Error != "" {
		return &APIError{
			Code:       fmt.Sprintf("HTTP_%d", statusCode),
			Message:    simpleErr.Error,
			StatusCode: statusCode,
		}
	}

	return &APIError{
		Code:       fmt.Sprintf("HTTP_%d", statusCode),
		Message:    string(body),
		StatusCode: statusCode,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
