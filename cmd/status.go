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
	"github.com/spf13/cobra"

	"solsweep/config"
	"solsweep/pkg/chain"
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the status of a submitted swap transaction",
	Long: `Look up a swap transaction by its signature.

Examples:
  solsweep status 5UfDu...Yk2p
  solsweep status 5UfDu...Yk2p --json`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	signature := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainClient := chain.New(cfg.RPCURL, cfg.Commitment)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	info, err := chainClient.GetTransactionInfo(context.Background(), signature)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTransaction(info)
	}
}

func displayTransaction(info *chain.TransactionInfo) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	status := color.GreenString("CONFIRMED")
	if info.Err != nil {
		status = color.RedString("FAILED: %v", info.Err)
	}

	fmt.Printf("\n  Signature: %s\n", color.CyanString(info.Signature))
	fmt.Printf("  Status:    %s\n", status)
	fmt.Printf("  Slot:      %d\n", info.Slot)
	fmt.Printf("  Fee:       %d lamports\n", info.Fee)
	if info.BlockTime > 0 {
		fmt.Printf("  Time:      %s\n", time.Unix(info.BlockTime, 0).Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
