package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solsweep/config"
	"solsweep/pkg/allocator"
	"solsweep/pkg/chain"
	"solsweep/pkg/client"
	"solsweep/pkg/engine"
	"solsweep/pkg/parser"
	"solsweep/pkg/portfolio"
	"solsweep/pkg/signer"
	"solsweep/pkg/types"
)

var (
	slippageBps  int
	noConfirm    bool
	onlyMints    []string
	excludeMints []string
)

var liquidateCmd = &cobra.Command{
	Use:   "liquidate <percentage> to <token>",
	Short: "Liquidate a percentage of your portfolio into one asset",
	Long: `Sell a percentage of every eligible token in the wallet into a single
output asset. The percentage is applied pro-rata to each token's share of
portfolio value, so liquidating 50% halves the whole portfolio, not each
position independently of its size.

Swaps run strictly one at a time. A token that fails after its retries are
exhausted is reported and skipped; the remaining tokens still run.

Examples:
  solsweep liquidate 50 to USDC
  solsweep liquidate 25% into SOL --slippage-bps 150
  solsweep liquidate 100 to USDC --only DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
  solsweep liquidate 10 to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runLiquidate,
}

func init() {
	rootCmd.AddCommand(liquidateCmd)

	liquidateCmd.Flags().IntVar(&slippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default from config)")
	liquidateCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	liquidateCmd.Flags().StringSliceVar(&onlyMints, "only", nil, "Liquidate only these mints or symbols")
	liquidateCmd.Flags().StringSliceVar(&excludeMints, "exclude", nil, "Never liquidate these mints or symbols")
}

func runLiquidate(cmd *cobra.Command, args []string) {
	req, err := parser.ParseLiquidateCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if slippageBps <= 0 {
		slippageBps = cfg.SlippageBps
	}

	if err := confirmationError(jsonOutput, noConfirm, cfg.AutoConfirm); err != nil {
		printError(err)
		os.Exit(1)
	}

	txSigner, err := newSigner(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	rpcClient := rpc.New(cfg.RPCURL)
	chainClient := chain.NewFromRPC(rpcClient, cfg.Commitment)
	aggClient := client.NewAggregatorClient(cfg.AggregatorURL)
	priceClient := client.NewPriceClient(cfg.PriceURL)
	holdingsSvc := portfolio.New(rpcClient, priceClient, chain.ParseCommitment(cfg.Commitment))

	// Ctrl+C cancels between pipeline stages, not mid-signature.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outputMint, outputInfo, err := resolveOutputAsset(ctx, holdingsSvc, req.Output)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	holdings, err := fetchHoldings(ctx, holdingsSvc, txSigner.PublicKey(), jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	holdings = filterHoldings(holdings, onlyMints, excludeMints)

	intent := types.LiquidationIntent{
		OutputMint:     outputMint,
		OutputSymbol:   outputInfo.Symbol,
		OutputDecimals: outputInfo.Decimals,
		Percentage:     req.Percentage,
		SlippageBps:    slippageBps,
		Holdings:       holdings,
	}
	if err := intent.Validate(cfg.DustUSD); err != nil {
		printError(err)
		os.Exit(1)
	}

	plan := allocator.Plan(holdings, intent)
	if !jsonOutput {
		displayPlan(plan, intent)
		if !noConfirm && !cfg.AutoConfirm && !confirmLiquidation() {
			fmt.Println("\nLiquidation cancelled.")
			os.Exit(0)
		}
	}

	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
		defer logger.Sync()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Start()
		defer s.Stop()
	}

	eng := engine.New(engine.Options{
		Quoter:  aggClient,
		Builder: aggClient,
		Chain:   chainClient,
		Signer:  txSigner,
		PriorityFee: client.PriorityFee{
			MaxLamports: cfg.PriorityFee.MaxLamports,
			Level:       cfg.PriorityFee.Level,
		},
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		DustUSD:    cfg.DustUSD,
		Logger:     logger,
		OnProgress: func(ev engine.ProgressEvent) {
			if !jsonOutput {
				s.Suffix = " " + ev.Message
			}
		},
		OnResult: func(res types.SwapAttemptResult) {
			if !jsonOutput {
				s.Stop()
				displayResult(res)
				s.Start()
			}
		},
	})

	summary, runErr := eng.Run(ctx, intent)
	if !jsonOutput {
		s.Stop()
	}

	if runErr != nil && summary == nil {
		printError(runErr)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"outcome":        summary.Outcome(),
			"succeeded":      summary.Succeeded,
			"failed":         summary.Failed,
			"skipped":        summary.Skipped,
			"liquidated_usd": summary.LiquidatedUSD,
			"results":        summary.Results,
		}, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySummary(summary, runErr)
		refreshBalances(ctx, holdingsSvc, txSigner.PublicKey())
	}

	if summary.Failed > 0 || runErr != nil {
		os.Exit(1)
	}
}

func newSigner(cfg *config.Config) (signer.TransactionSigner, error) {
	if cfg.Wallet.UseLedger {
		return nil, fmt.Errorf("hardware signing requires a connected device transport; none is configured. Unset wallet.use_ledger or set wallet.private_key")
	}
	if cfg.Wallet.PrivateKey == "" {
		return nil, fmt.Errorf("wallet.private_key not configured. Set it in .solsweep.yaml or via SOLSWEEP_WALLET_PRIVATE_KEY")
	}
	return signer.NewKeypairSigner(cfg.Wallet.PrivateKey)
}

// confirmationError rejects runs that can never obtain consent: --json
// suppresses the interactive prompt, so the approval must come from --yes or
// the auto_confirm setting.
func confirmationError(jsonOutput, skipPrompt, autoConfirm bool) error {
	if jsonOutput && !skipPrompt && !autoConfirm {
		return fmt.Errorf("--json suppresses the confirmation prompt; pass --yes or set auto_confirm to proceed")
	}
	return nil
}

// mintDecimalsLookup resolves a mint's decimals from the chain.
type mintDecimalsLookup interface {
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

// resolveOutputAsset accepts either a known symbol or a raw mint address.
// Unknown mints get their decimals from the mint account so received amounts
// render correctly.
func resolveOutputAsset(ctx context.Context, lookup mintDecimalsLookup, output string) (string, portfolio.TokenInfo, error) {
	symbol := parser.NormalizeTokenSymbol(output)
	if mint, info, ok := portfolio.FindMintBySymbol(symbol); ok {
		return mint, info, nil
	}

	pub, err := solana.PublicKeyFromBase58(output)
	if err != nil {
		return "", portfolio.TokenInfo{}, fmt.Errorf("unknown output asset %q: use a known symbol or a mint address", output)
	}
	if info, ok := portfolio.LookupToken(output); ok {
		return output, info, nil
	}

	decimals, err := lookup.MintDecimals(ctx, pub)
	if err != nil {
		return "", portfolio.TokenInfo{}, fmt.Errorf("resolve decimals for mint %s: %w", output, err)
	}
	return output, portfolio.TokenInfo{Symbol: output[:4] + "..", Decimals: decimals}, nil
}

func fetchHoldings(ctx context.Context, svc *portfolio.Service, owner solana.PublicKey, jsonOutput bool) ([]types.AssetHolding, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching portfolio..."
		s.Start()
		defer s.Stop()
	}
	return svc.Holdings(ctx, owner)
}

func filterHoldings(holdings []types.AssetHolding, only, exclude []string) []types.AssetHolding {
	match := func(h types.AssetHolding, keys []string) bool {
		for _, key := range keys {
			if strings.EqualFold(key, h.Symbol) || key == h.Mint {
				return true
			}
		}
		return false
	}

	filtered := make([]types.AssetHolding, 0, len(holdings))
	for _, h := range holdings {
		if len(only) > 0 && !match(h, only) {
			continue
		}
		if match(h, exclude) {
			continue
		}
		filtered = append(filtered, h)
	}
	return filtered
}

func displayPlan(plan []types.SwapPlanItem, intent types.LiquidationIntent) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       LIQUIDATION PLAN")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Liquidating %.1f%% of portfolio into %s (slippage %d bps)\n\n",
		intent.Percentage, color.YellowString(intent.OutputSymbol), intent.SlippageBps)

	total := 0.0
	for _, item := range plan {
		if item.RawAmount == 0 {
			fmt.Printf("  %-10s  %s\n",
				color.YellowString(item.Holding.Symbol),
				color.HiBlackString("skipped (no price or nothing to swap)"))
			continue
		}
		fmt.Printf("  %-10s  %14.6f  (%5.1f%% of plan)  $%.2f\n",
			color.YellowString(item.Holding.Symbol),
			item.Quantity,
			item.ShareOfTotal*100,
			item.ValueUSD)
		total += item.ValueUSD
	}

	fmt.Printf("\n  Total liquidation value: %s\n", color.GreenString("$%.2f", total))
	fmt.Println("\n" + strings.Repeat("=", 70))
}

func confirmLiquidation() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with liquidation? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func displayResult(res types.SwapAttemptResult) {
	switch res.Status {
	case types.ResultSucceeded:
		color.Green("✓ %s: swapped %.6f ($%.2f), received %.6f", res.Symbol, res.InputQuantity, res.ValueUSD, res.OutputQuantity)
		if res.Signature != "" {
			fmt.Printf("    %s\n", color.HiBlackString(res.Signature))
		}
	case types.ResultFailed:
		color.Red("✗ %s: %s (after %d retries)", res.Symbol, res.FailureReason, res.Retries)
	case types.ResultSkipped:
		color.HiBlack("- %s: %s", res.Symbol, res.FailureReason)
	}
}

func displaySummary(summary *engine.Summary, runErr error) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	switch {
	case runErr != nil:
		color.Yellow("  Run interrupted: %v", runErr)
		fmt.Printf("  Completed before interruption: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	case summary.Failed == 0 && summary.Succeeded > 0:
		color.Green("  %s — liquidated $%.2f", summary.Outcome(), summary.LiquidatedUSD)
	case summary.Succeeded > 0:
		color.Yellow("  %s — liquidated $%.2f", summary.Outcome(), summary.LiquidatedUSD)
	default:
		color.Red("  %s", summary.Outcome())
	}
	fmt.Println(strings.Repeat("=", 70))
}

func refreshBalances(ctx context.Context, svc *portfolio.Service, owner solana.PublicKey) {
	if ctx.Err() != nil {
		return
	}
	holdings, err := svc.Holdings(ctx, owner)
	if err != nil {
		return
	}
	total := 0.0
	for _, h := range holdings {
		total += h.ValueUSD
	}
	fmt.Printf("\nPortfolio value after liquidation: %s\n\n", color.GreenString("$%.2f", total))
}
