package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"solsweep/config"
	"solsweep/pkg/client"
	"solsweep/pkg/portfolio"
)

var (
	filterSymbol string
	withPrices   bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens"},
	Short:   "List tokens solsweep resolves by symbol",
	Long: `List the tokens solsweep can resolve by symbol when choosing a
liquidation output. Any other SPL token still works when addressed by mint.

Examples:
  solsweep list-tokens
  solsweep list-tokens --symbol SOL
  solsweep list-tokens --prices`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&withPrices, "prices", false, "Include live USD prices")
}

type tokenRow struct {
	Symbol   string  `json:"symbol"`
	Mint     string  `json:"mint"`
	Decimals uint8   `json:"decimals"`
	PriceUSD float64 `json:"priceUsd,omitempty"`
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	rows := make([]tokenRow, 0)
	for mint, info := range portfolio.KnownTokens() {
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(info.Symbol), strings.ToUpper(filterSymbol)) {
			continue
		}
		rows = append(rows, tokenRow{Symbol: info.Symbol, Mint: mint, Decimals: info.Decimals})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })

	if withPrices && len(rows) > 0 {
		cfg, err := config.Load()
		if err != nil {
			printError(err)
			os.Exit(1)
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Fetching prices..."
			s.Start()
		}

		mints := make([]string, len(rows))
		for i, row := range rows {
			mints[i] = row.Mint
		}
		prices, err := client.NewPriceClient(cfg.PriceURL).Prices(cmd.Context(), mints)
		if !jsonOutput {
			s.Stop()
		}
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		for i := range rows {
			rows[i].PriceUSD = prices[rows[i].Mint]
		}
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayTokens(rows)
}

func displayTokens(rows []tokenRow) {
	if len(rows) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                              KNOWN TOKENS")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	for _, row := range rows {
		line := fmt.Sprintf("  %-8s  %d decimals  %s",
			color.YellowString(row.Symbol),
			row.Decimals,
			color.HiBlackString(row.Mint))
		if row.PriceUSD > 0 {
			line += fmt.Sprintf("  $%.4f", row.PriceUSD)
		}
		fmt.Println(line)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d tokens\n\n", len(rows))
}
