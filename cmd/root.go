package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solsweep",
	Short: "A CLI for liquidating a Solana token portfolio into one asset",
	Long: `solsweep sells a chosen percentage of every token in your wallet into a
single output asset, one swap per token, routed through the aggregator.

Each asset is quoted, built, signed, submitted and confirmed in turn; a
failing asset never blocks the rest of the run.

Examples:
  solsweep liquidate 50 to USDC
  solsweep liquidate 25% into SOL --slippage-bps 150
  solsweep holdings
  solsweep status <signature>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
