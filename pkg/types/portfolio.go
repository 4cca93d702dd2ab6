package types

import (
	"fmt"
	"math"
)

// AssetHolding is an immutable snapshot of one token position in the wallet,
// as reported by the balance/price provider. Quantities are in UI units
// (already adjusted for the mint's decimals). UnitPriceUSD and ValueUSD are
// zero when no price is known for the mint.
type AssetHolding struct {
	Mint         string  `json:"mint"`
	Symbol       string  `json:"symbol"`
	Decimals     uint8   `json:"decimals"`
	Quantity     float64 `json:"quantity"`
	UnitPriceUSD float64 `json:"unit_price_usd"`
	ValueUSD     float64 `json:"value_usd"`
}

// HasPrice reports whether a usable price is attached to the holding.
func (h AssetHolding) HasPrice() bool {
	return h.UnitPriceUSD > 0
}

// RawAmount converts a UI-unit quantity into the mint's smallest unit,
// flooring so we never round up past the on-hand balance.
func (h AssetHolding) RawAmount(quantity float64) uint64 {
	if quantity <= 0 {
		return 0
	}
	return uint64(math.Floor(quantity * math.Pow10(int(h.Decimals))))
}

// LiquidationIntent is the user's request: sell Percentage of each selected
// holding's share of portfolio value into the output asset.
type LiquidationIntent struct {
	OutputMint     string
	OutputSymbol   string
	OutputDecimals uint8
	Percentage     float64 // 0 < p <= 100
	SlippageBps    int
	Holdings       []AssetHolding
}

// Validate rejects an intent before any planning or network activity.
// dustUSD is the minimum per-asset liquidation value worth swapping; an
// intent where no candidate clears it has nothing eligible to do.
func (in LiquidationIntent) Validate(dustUSD float64) error {
	if in.Percentage <= 0 || in.Percentage > 100 {
		return fmt.Errorf("liquidation percentage must be in (0, 100], got %.2f", in.Percentage)
	}
	if in.SlippageBps <= 0 {
		return fmt.Errorf("slippage tolerance must be positive, got %d bps", in.SlippageBps)
	}
	if in.OutputMint == "" {
		return fmt.Errorf("output asset is required")
	}

	eligible := false
	for _, h := range in.Holdings {
		if h.Mint == in.OutputMint {
			continue
		}
		if h.ValueUSD*in.Percentage/100 > dustUSD {
			eligible = true
			break
		}
	}
	if !eligible {
		return fmt.Errorf("no eligible assets: nothing to liquidate above $%.2f", dustUSD)
	}
	return nil
}

// SwapPlanItem is one asset's slice of the liquidation plan. Quantity is
// floor-clamped to the on-hand balance and may be zero (unknown price,
// zero portfolio value); filtering zero items is the orchestrator's job.
type SwapPlanItem struct {
	Holding      AssetHolding
	Quantity     float64 // UI units to swap, <= Holding.Quantity
	RawAmount    uint64  // Quantity in the mint's smallest unit
	ShareOfTotal float64 // this asset's weight in the liquidation, 0..1
	ValueUSD     float64 // USD value being liquidated
}

// ResultStatus is the terminal state of one asset's swap attempt sequence.
type ResultStatus string

const (
	ResultSucceeded ResultStatus = "succeeded"
	ResultFailed    ResultStatus = "failed"
	ResultSkipped   ResultStatus = "skipped"
)

// SwapAttemptResult records the outcome of one asset's trip through the
// pipeline. Created when the asset's turn begins, finalized exactly once,
// and appended to the run's result sequence; never retracted.
type SwapAttemptResult struct {
	Symbol         string       `json:"symbol"`
	Mint           string       `json:"mint"`
	Status         ResultStatus `json:"status"`
	Signature      string       `json:"signature,omitempty"`
	ValueUSD       float64      `json:"value_usd"`
	InputQuantity  float64      `json:"input_quantity"`
	OutputQuantity float64      `json:"output_quantity,omitempty"`
	FailureKind    ErrorKind    `json:"failure_kind,omitempty"`
	FailureReason  string       `json:"failure_reason,omitempty"`
	Retries        int          `json:"retries"`
}
