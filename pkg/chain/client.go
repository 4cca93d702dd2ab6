// Package chain wraps the Solana RPC endpoint: blockhash anchors,
// transaction submission, and confirmation tracking.
package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solsweep/pkg/types"
)

const (
	// DefaultConfirmPollInterval is how often Confirm re-checks a
	// signature's status.
	DefaultConfirmPollInterval = 500 * time.Millisecond

	// DefaultRequestTimeout caps every individual RPC call so a hung
	// endpoint surfaces as a classified, retryable error instead of
	// stalling the asset.
	DefaultRequestTimeout = 15 * time.Second

	// submitMaxRetries bounds the RPC node's own resend attempts. This is
	// network-level resending of one signed payload, separate from the
	// orchestrator's per-asset retry.
	submitMaxRetries = uint(3)

	// maxConsecutivePollErrors bounds how many status polls in a row may
	// fail before Confirm gives up on the endpoint.
	maxConsecutivePollErrors = 10
)

// Anchor is the short-lived network reference a transaction must carry to be
// valid. It expires once the chain's block height passes
// LastValidBlockHeight; a fresh one must be fetched for every build attempt.
type Anchor struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Client talks to a Solana RPC node. Every call carries its own request
// timeout on top of whatever deadline the caller's context has.
type Client struct {
	rpc            *rpc.Client
	commitment     rpc.CommitmentType
	pollInterval   time.Duration
	requestTimeout time.Duration
}

// New connects to the RPC node at rpcURL.
func New(rpcURL, commitment string) *Client {
	return NewFromRPC(rpc.New(rpcURL), commitment)
}

// NewFromRPC wraps an existing RPC client.
func NewFromRPC(rpcClient *rpc.Client, commitment string) *Client {
	return &Client{
		rpc:            rpcClient,
		commitment:     ParseCommitment(commitment),
		pollInterval:   DefaultConfirmPollInterval,
		requestTimeout: DefaultRequestTimeout,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.requestTimeout)
}

// ParseCommitment maps a config string to an RPC commitment level,
// defaulting to confirmed.
func ParseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// LatestAnchor fetches the current blockhash and its expiry height. Callers
// must fetch a fresh anchor immediately before each transaction build and
// never reuse one across attempts.
func (c *Client) LatestAnchor(ctx context.Context) (Anchor, error) {
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.rpc.GetLatestBlockhash(rctx, c.commitment)
	if err != nil {
		return Anchor{}, types.NewSwapError(types.KindServiceError, fmt.Errorf("fetch latest blockhash: %w", err))
	}
	return Anchor{
		Blockhash:            out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// Submit broadcasts a signed transaction. Preflight is skipped because the
// signer already validated the transaction; the node may resend the payload
// a bounded number of times on its own.
func (c *Client) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	maxRetries := submitMaxRetries
	sig, err := c.rpc.SendTransactionWithOpts(rctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		MaxRetries:          &maxRetries,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, types.NewSwapError(types.KindSubmitFailed, fmt.Errorf("send transaction: %w", err))
	}
	return sig, nil
}

// Confirm waits until sig reaches the client's commitment level. It fails
// once the chain's block height passes the anchor's expiry, and an on-chain
// execution error returned alongside the signature is reported as a failure,
// never as success. Transient RPC errors while polling are absorbed and the
// next tick retries the status check, but an endpoint that keeps failing
// eventually finalizes the attempt instead of stalling it.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature, anchor Anchor) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	pollErrors := 0
	for {
		status, err := c.signatureStatus(ctx, sig)
		if err != nil {
			pollErrors++
			if pollErrors >= maxConsecutivePollErrors {
				return types.Errorf(types.KindConfirmFailed,
					"rpc endpoint unreachable while confirming %s: %v", sig, err)
			}
		} else {
			pollErrors = 0
			if status != nil {
				if status.Err != nil {
					return types.Errorf(types.KindExecutionFailed, "transaction %s failed on-chain: %v", sig, status.Err)
				}
				if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
					status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
					return nil
				}
			}
		}

		if err == nil && status == nil {
			hctx, cancel := c.withTimeout(ctx)
			height, herr := c.rpc.GetBlockHeight(hctx, c.commitment)
			cancel()
			if herr == nil && height > anchor.LastValidBlockHeight {
				return types.Errorf(types.KindConfirmFailed,
					"blockhash expired before confirmation of %s (height %d past %d)",
					sig, height, anchor.LastValidBlockHeight)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) signatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.rpc.GetSignatureStatuses(rctx, true, sig)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// TransactionInfo is a summary of an already-submitted transaction, used by
// the status command.
type TransactionInfo struct {
	Signature string
	Slot      uint64
	Fee       uint64
	Err       interface{}
	BlockTime int64
}

// GetTransactionInfo looks up a transaction by signature.
func (c *Client) GetTransactionInfo(ctx context.Context, signature string) (*TransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}

	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	txInfo, err := c.rpc.GetTransaction(rctx, sig, &rpc.GetTransactionOpts{
		Encoding: solana.EncodingBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	info := &TransactionInfo{
		Signature: signature,
		Slot:      txInfo.Slot,
	}
	if txInfo.Meta != nil {
		info.Fee = txInfo.Meta.Fee
		info.Err = txInfo.Meta.Err
	}
	if txInfo.BlockTime != nil {
		info.BlockTime = int64(*txInfo.BlockTime)
	}

	return info, nil
}
