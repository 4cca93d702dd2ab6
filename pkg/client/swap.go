package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solsweep/pkg/types"
)

// PriorityFee is the priority-fee policy applied to built transactions:
// a hard lamport cap plus a qualitative urgency tier understood by the
// aggregator ("medium", "high", "veryHigh").
type PriorityFee struct {
	MaxLamports uint64
	Level       string
}

type swapRequest struct {
	UserPublicKey             string             `json:"userPublicKey"`
	QuoteResponse             *Quote             `json:"quoteResponse"`
	WrapAndUnwrapSol          bool               `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool               `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports *prioritizationFee `json:"prioritizationFeeLamports,omitempty"`
}

type prioritizationFee struct {
	PriorityLevelWithMaxLamports priorityLevel `json:"priorityLevelWithMaxLamports"`
}

type priorityLevel struct {
	MaxLamports   uint64 `json:"maxLamports"`
	PriorityLevel string `json:"priorityLevel"`
}

type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// BuildSwap asks the aggregator for an executable unsigned transaction for
// quote, payable by payer. recentBlockhash must be freshly fetched by the
// caller immediately before this call; it is stamped over whatever anchor
// the aggregator put in the payload, since that one may already be stale
// by the time the transaction is signed.
func (c *AggregatorClient) BuildSwap(ctx context.Context, quote *Quote, payer solana.PublicKey, recentBlockhash solana.Hash, fee PriorityFee) (*solana.Transaction, error) {
	reqBody := swapRequest{
		UserPublicKey:           payer.String(),
		QuoteResponse:           quote,
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	}
	if fee.MaxLamports > 0 {
		level := fee.Level
		if level == "" {
			level = "medium"
		}
		reqBody.PrioritizationFeeLamports = &prioritizationFee{
			PriorityLevelWithMaxLamports: priorityLevel{
				MaxLamports:   fee.MaxLamports,
				PriorityLevel: level,
			},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("encode swap request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("build swap request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("swap request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := statusMessage(resp)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, types.Errorf(types.KindInvalidRequest, "aggregator rejected swap request (%s)", msg)
		}
		return nil, types.Errorf(types.KindBuildFailed, "swap build failed (%s)", msg)
	}

	var swapResp swapResponse
	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("decode swap response: %w", err))
	}
	if swapResp.SwapTransaction == "" {
		return nil, types.Errorf(types.KindBuildFailed, "swap response missing swapTransaction")
	}

	rawTx, err := base64.StdEncoding.DecodeString(swapResp.SwapTransaction)
	if err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("decode swap transaction: %w", err))
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return nil, types.NewSwapError(types.KindBuildFailed, fmt.Errorf("parse swap transaction: %w", err))
	}

	tx.Message.RecentBlockhash = recentBlockhash
	return tx, nil
}
