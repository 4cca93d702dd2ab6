package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solsweep/pkg/types"
)

// Quote is the aggregator's answer for one input/output pair and amount.
// The raw payload is retained verbatim because the swap-build endpoint
// expects the quote echoed back unmodified.
type Quote struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SwapMode             string `json:"swapMode"`
	SlippageBps          int    `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`

	FetchedAt time.Time `json:"-"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps the full payload.
func (q *Quote) UnmarshalJSON(data []byte) error {
	type alias Quote
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = Quote(a)
	q.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON round-trips the original payload when one was received.
func (q *Quote) MarshalJSON() ([]byte, error) {
	if q.raw != nil {
		return q.raw, nil
	}
	type alias Quote
	return json.Marshal((*alias)(q))
}

// OutAmountRaw returns the quoted output amount in the output mint's
// smallest unit.
func (q *Quote) OutAmountRaw() (uint64, error) {
	return strconv.ParseUint(q.OutAmount, 10, 64)
}

// Age reports how long ago the quote was fetched.
func (q *Quote) Age() time.Duration {
	return time.Since(q.FetchedAt)
}

// GetQuote asks the aggregator for an exact-in quote. rawAmount is the swap
// amount in the input mint's smallest unit; a non-positive amount never
// reaches the network and comes back as a precondition failure.
func (c *AggregatorClient) GetQuote(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (*Quote, error) {
	if rawAmount == 0 {
		return nil, types.Errorf(types.KindPrecondition, "computed swap amount for %s is zero", inputMint)
	}

	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(rawAmount, 10))
	params.Set("slippageBps", strconv.Itoa(slippageBps))
	params.Set("swapMode", "ExactIn")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewSwapError(types.KindInvalidRequest, fmt.Errorf("build quote request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewSwapError(types.KindServiceError, fmt.Errorf("quote request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyQuoteStatus(resp)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, types.NewSwapError(types.KindMalformedResponse, fmt.Errorf("decode quote response: %w", err))
	}
	if quote.OutAmount == "" {
		return nil, types.Errorf(types.KindMalformedResponse, "quote response missing outAmount")
	}

	quote.FetchedAt = time.Now()
	return &quote, nil
}

func classifyQuoteStatus(resp *http.Response) error {
	msg := statusMessage(resp)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return types.Errorf(types.KindRateLimited, "aggregator rate limited (%s)", msg)
	case resp.StatusCode >= 500:
		return types.Errorf(types.KindServiceError, "aggregator error (%s)", msg)
	case resp.StatusCode >= 400:
		return types.Errorf(types.KindInvalidRequest, "aggregator rejected quote request (%s)", msg)
	default:
		return types.Errorf(types.KindServiceError, "unexpected aggregator response (%s)", msg)
	}
}
