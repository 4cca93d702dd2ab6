// Package client talks to the swap aggregator service: price quotes,
// prebuilt swap transactions, and USD prices. All failures are classified
// into types.ErrorKind; retry policy lives with the caller, not here.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every aggregator request. Timeouts surface as
// retryable service errors.
const DefaultTimeout = 15 * time.Second

// AggregatorClient is a thin HTTP client for the aggregator's quote and
// swap-build endpoints.
type AggregatorClient struct {
	baseURL string
	http    *http.Client
}

// NewAggregatorClient creates a client for the given aggregator base URL.
func NewAggregatorClient(baseURL string) *AggregatorClient {
	return &AggregatorClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// NewAggregatorClientWithHTTP creates a client with a caller-supplied
// http.Client (used by tests and by callers that need custom transports).
func NewAggregatorClientWithHTTP(baseURL string, hc *http.Client) *AggregatorClient {
	return &AggregatorClient{baseURL: baseURL, http: hc}
}

// apiMessage tries to pull a human-readable message out of an error response
// body. The aggregator returns either {"error": "..."} or {"message": "..."}.
func apiMessage(body []byte) string {
	var errorResp map[string]interface{}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if msg, ok := errorResp["error"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := errorResp["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return "no response body"
}

func readBody(resp *http.Response) []byte {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return body
}

func statusMessage(resp *http.Response) string {
	return fmt.Sprintf("status %d: %s", resp.StatusCode, apiMessage(readBody(resp)))
}
