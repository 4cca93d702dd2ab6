package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PriceClient fetches USD prices from the aggregator's price endpoint.
type PriceClient struct {
	baseURL string
	http    *http.Client
}

// NewPriceClient creates a price client for the given base URL.
func NewPriceClient(baseURL string) *PriceClient {
	return &PriceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// NewPriceClientWithHTTP creates a price client with a caller-supplied
// http.Client.
func NewPriceClientWithHTTP(baseURL string, hc *http.Client) *PriceClient {
	return &PriceClient{baseURL: baseURL, http: hc}
}

type priceResponse struct {
	Data map[string]priceEntry `json:"data"`
}

type priceEntry struct {
	Price string `json:"price"`
}

// Prices returns USD unit prices keyed by mint. Mints the service does not
// know are simply absent from the result; callers treat a missing price as
// unknown, not as an error.
func (c *PriceClient) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(mints, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price service returned %s", statusMessage(resp))
	}

	var priceResp priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return nil, fmt.Errorf("decode price response: %w", err)
	}

	prices := make(map[string]float64, len(priceResp.Data))
	for mint, entry := range priceResp.Data {
		price, err := strconv.ParseFloat(entry.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		prices[mint] = price
	}

	return prices, nil
}
