// Package engine drives a liquidation run: it expands the intent into a
// pro-rata plan and walks each asset through quote, build, sign, submit and
// confirm, strictly one asset at a time, with bounded per-asset retry.
// A failing asset never stops the run; every asset ends in exactly one
// terminal result.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solsweep/pkg/allocator"
	"solsweep/pkg/chain"
	"solsweep/pkg/client"
	"solsweep/pkg/signer"
	"solsweep/pkg/types"
)

const (
	// DefaultMaxRetries is the per-asset retry cap: 2 retries, 3 attempts.
	DefaultMaxRetries = 2

	// DefaultBaseDelay seeds the linear backoff between attempts.
	DefaultBaseDelay = 2 * time.Second
)

// Quoter requests a price/route quote for one asset pair.
type Quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (*client.Quote, error)
}

// TxBuilder requests an executable unsigned transaction for a quote,
// anchored to a caller-supplied fresh blockhash.
type TxBuilder interface {
	BuildSwap(ctx context.Context, quote *client.Quote, payer solana.PublicKey, recentBlockhash solana.Hash, fee client.PriorityFee) (*solana.Transaction, error)
}

// ChainClient covers the network-side of the pipeline: anchor fetch,
// submission, and confirmation.
type ChainClient interface {
	LatestAnchor(ctx context.Context) (chain.Anchor, error)
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Confirm(ctx context.Context, sig solana.Signature, anchor chain.Anchor) error
}

// Options configures an Engine.
type Options struct {
	Quoter  Quoter
	Builder TxBuilder
	Chain   ChainClient
	Signer  signer.TransactionSigner

	PriorityFee client.PriorityFee
	MaxRetries  int           // retries per asset; 0 means DefaultMaxRetries
	BaseDelay   time.Duration // linear backoff seed; 0 means DefaultBaseDelay
	DustUSD     float64       // plan items below this value are skipped

	// OnProgress and OnResult stream live state to the presentation layer.
	// Both are invoked from the run's goroutine; nil is fine.
	OnProgress func(ProgressEvent)
	OnResult   func(types.SwapAttemptResult)

	Logger *zap.Logger
}

// Engine owns the mutable state of one liquidation run: the current step and
// the append-only result sequence. It is the sole writer of both.
type Engine struct {
	quoter  Quoter
	builder TxBuilder
	chain   ChainClient
	signer  signer.TransactionSigner

	fee        client.PriorityFee
	maxRetries int
	baseDelay  time.Duration
	dustUSD    float64

	onProgress func(ProgressEvent)
	onResult   func(types.SwapAttemptResult)
	logger     *zap.Logger

	mu      sync.Mutex
	results []types.SwapAttemptResult
}

// New creates an engine. Quoter, Builder, Chain and Signer are required.
func New(opts Options) *Engine {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		quoter:     opts.Quoter,
		builder:    opts.Builder,
		chain:      opts.Chain,
		signer:     opts.Signer,
		fee:        opts.PriorityFee,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		dustUSD:    opts.DustUSD,
		onProgress: opts.OnProgress,
		onResult:   opts.OnResult,
		logger:     opts.Logger,
	}
}

// Summary aggregates a finished (or canceled) run.
type Summary struct {
	Succeeded     int
	Failed        int
	Skipped       int
	LiquidatedUSD float64
	Results       []types.SwapAttemptResult
}

// Outcome is the aggregate banner text for the run.
func (s *Summary) Outcome() string {
	switch {
	case s.Succeeded > 0 && s.Failed == 0:
		return fmt.Sprintf("all %d swaps succeeded", s.Succeeded)
	case s.Succeeded > 0:
		return fmt.Sprintf("%d/%d swaps succeeded", s.Succeeded, s.Succeeded+s.Failed)
	case s.Failed > 0:
		return fmt.Sprintf("all %d swaps failed", s.Failed)
	default:
		return "nothing to swap"
	}
}

// Results returns a snapshot of the result sequence. Safe to call while the
// run is in flight; results appear incrementally in completion order, which
// equals plan order.
func (e *Engine) Results() []types.SwapAttemptResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.SwapAttemptResult, len(e.results))
	copy(out, e.results)
	return out
}

// Run executes the liquidation. It validates the intent, plans, and then
// processes every plan item to a terminal state before touching the next.
// The returned error is non-nil only for an invalid intent or cancellation;
// per-asset failures live in the summary.
func (e *Engine) Run(ctx context.Context, intent types.LiquidationIntent) (*Summary, error) {
	if err := intent.Validate(e.dustUSD); err != nil {
		return nil, err
	}

	plan := allocator.Plan(intent.Holdings, intent)
	e.logger.Info("liquidation planned",
		zap.Int("assets", len(plan)),
		zap.Float64("percentage", intent.Percentage),
		zap.String("output", intent.OutputSymbol),
	)

	summary := &Summary{}
	for _, item := range plan {
		res := e.processAsset(ctx, item, intent)
		e.finalize(res)

		switch res.Status {
		case types.ResultSucceeded:
			summary.Succeeded++
			summary.LiquidatedUSD += res.ValueUSD
		case types.ResultFailed:
			summary.Failed++
		case types.ResultSkipped:
			summary.Skipped++
		}

		if err := ctx.Err(); err != nil {
			summary.Results = e.Results()
			return summary, err
		}
	}

	summary.Results = e.Results()
	e.logger.Info("liquidation finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Float64("liquidated_usd", summary.LiquidatedUSD),
	)
	return summary, nil
}

// processAsset drives one asset to a terminal state.
func (e *Engine) processAsset(ctx context.Context, item types.SwapPlanItem, intent types.LiquidationIntent) types.SwapAttemptResult {
	symbol := item.Holding.Symbol
	res := types.SwapAttemptResult{
		Symbol:        symbol,
		Mint:          item.Holding.Mint,
		ValueUSD:      item.ValueUSD,
		InputQuantity: item.Quantity,
	}

	if item.RawAmount == 0 {
		res.Status = types.ResultSkipped
		res.FailureKind = types.KindPrecondition
		res.FailureReason = "computed swap amount is zero"
		e.publish(symbol, StepSkipped, 0, fmt.Sprintf("Skipping %s: nothing to swap", symbol))
		return res
	}
	if item.ValueUSD < e.dustUSD {
		res.Status = types.ResultSkipped
		res.FailureKind = types.KindPrecondition
		res.FailureReason = fmt.Sprintf("value $%.2f below dust threshold $%.2f", item.ValueUSD, e.dustUSD)
		e.publish(symbol, StepSkipped, 0, fmt.Sprintf("Skipping %s: below dust threshold", symbol))
		return res
	}

	for attempt := 0; ; attempt++ {
		res.Retries = attempt

		err := e.attempt(ctx, item, intent, attempt, &res)
		if err == nil {
			res.Status = types.ResultSucceeded
			e.publish(symbol, StepSucceeded, attempt+1, fmt.Sprintf("%s swap confirmed", symbol))
			return res
		}

		if ctx.Err() != nil {
			res.Status = types.ResultFailed
			res.FailureKind = types.KindUnknown
			res.FailureReason = fmt.Sprintf("run canceled: %v", ctx.Err())
			e.publish(symbol, StepFailed, attempt+1, fmt.Sprintf("%s swap canceled", symbol))
			return res
		}

		kind := types.KindOf(err)
		e.logger.Warn("swap attempt failed",
			zap.String("asset", symbol),
			zap.Int("attempt", attempt+1),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)

		if !kind.Retryable() || attempt >= e.maxRetries {
			res.Status = types.ResultFailed
			res.FailureKind = kind
			res.FailureReason = err.Error()
			e.publish(symbol, StepFailed, attempt+1, fmt.Sprintf("%s swap failed: %v", symbol, err))
			return res
		}

		delay := e.baseDelay * time.Duration(attempt+1)
		e.publish(symbol, StepIdle, attempt+2, fmt.Sprintf("Retrying %s in %s", symbol, delay))
		select {
		case <-ctx.Done():
			res.Status = types.ResultFailed
			res.FailureKind = kind
			res.FailureReason = fmt.Sprintf("run canceled: %v", ctx.Err())
			e.publish(symbol, StepFailed, attempt+1, fmt.Sprintf("%s swap canceled", symbol))
			return res
		case <-time.After(delay):
		}
	}
}

// attempt runs one pass through the pipeline. Every attempt fetches its own
// quote and its own anchor: a retry may cross the quote's useful lifetime,
// and a reused anchor is guaranteed to be rejected downstream.
func (e *Engine) attempt(ctx context.Context, item types.SwapPlanItem, intent types.LiquidationIntent, attempt int, res *types.SwapAttemptResult) error {
	symbol := item.Holding.Symbol
	n := attempt + 1

	if err := ctx.Err(); err != nil {
		return err
	}
	e.publish(symbol, StepQuoting, n, fmt.Sprintf("Fetching %s quote", symbol))
	quote, err := e.quoter.GetQuote(ctx, item.Holding.Mint, intent.OutputMint, item.RawAmount, intent.SlippageBps)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	e.publish(symbol, StepBuilding, n, fmt.Sprintf("Building %s transaction", symbol))
	anchor, err := e.chain.LatestAnchor(ctx)
	if err != nil {
		return err
	}
	tx, err := e.builder.BuildSwap(ctx, quote, e.signer.PublicKey(), anchor.Blockhash, e.fee)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	// Signer-specific prompt: a hardware signer needs the user at the
	// device before the capability is invoked.
	e.publish(symbol, StepSigning, n, e.signer.PromptText(symbol))
	if err := e.signer.Sign(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	e.publish(symbol, StepSubmitting, n, fmt.Sprintf("Submitting %s transaction", symbol))
	sig, err := e.chain.Submit(ctx, tx)
	if err != nil {
		return err
	}
	res.Signature = sig.String()

	if err := ctx.Err(); err != nil {
		return err
	}
	e.publish(symbol, StepConfirming, n, fmt.Sprintf("Confirming %s (%s)", symbol, sig))
	if err := e.chain.Confirm(ctx, sig, anchor); err != nil {
		return err
	}

	if out, perr := quote.OutAmountRaw(); perr == nil {
		res.OutputQuantity = float64(out) / math.Pow10(int(intent.OutputDecimals))
	}
	return nil
}

// finalize appends a terminal result and streams it to the caller.
func (e *Engine) finalize(res types.SwapAttemptResult) {
	e.mu.Lock()
	e.results = append(e.results, res)
	e.mu.Unlock()

	if e.onResult != nil {
		e.onResult(res)
	}
}
