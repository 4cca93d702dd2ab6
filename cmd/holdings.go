package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"solsweep/config"
	"solsweep/pkg/chain"
	"solsweep/pkg/client"
	"solsweep/pkg/portfolio"
	"solsweep/pkg/types"
)

var holdingsCmd = &cobra.Command{
	Use:     "holdings",
	Aliases: []string{"balances", "ls"},
	Short:   "List wallet holdings with prices",
	Long: `List every non-empty token position in the configured wallet, with the
current USD price and value where the price service knows the mint.

Examples:
  solsweep holdings
  solsweep holdings --json`,
	Run: runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
}

func runHoldings(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	owner, err := cfg.OwnerPublicKey()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	rpcClient := rpc.New(cfg.RPCURL)
	priceClient := client.NewPriceClient(cfg.PriceURL)
	holdingsSvc := portfolio.New(rpcClient, priceClient, chain.ParseCommitment(cfg.Commitment))

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching portfolio..."
		s.Start()
	}

	holdings, err := holdingsSvc.Holdings(context.Background(), owner)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(holdings, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayHoldings(holdings, owner.String())
	}
}

func displayHoldings(holdings []types.AssetHolding, owner string) {
	if len(holdings) == 0 {
		fmt.Println("\nNo token balances found for this wallet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                               HOLDINGS")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\n  Wallet: %s\n\n", color.CyanString(owner))

	total := 0.0
	for _, h := range holdings {
		value := color.HiBlackString("price unknown")
		if h.HasPrice() {
			value = fmt.Sprintf("$%12.2f  @ $%.6f", h.ValueUSD, h.UnitPriceUSD)
		}
		fmt.Printf("  %-10s  %18.6f  %s\n", color.YellowString(h.Symbol), h.Quantity, value)
		total += h.ValueUSD
	}

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("  Total: %s across %d assets\n\n", color.GreenString("$%.2f", total), len(holdings))
}
