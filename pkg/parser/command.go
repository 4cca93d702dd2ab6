package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LiquidateRequest is the parsed form of a liquidate command.
type LiquidateRequest struct {
	Percentage float64
	Output     string // output token symbol or mint address
}

// Pattern: <percentage>[%] [INTO|TO] <token-or-mint>
// Matches: "50 to USDC", "25% into SOL", "100 to EPjF..Dt1v"
var liquidatePattern = regexp.MustCompile(`^(\d+\.?\d*)%?\s+(?:TO|INTO)\s+([A-Za-z0-9]+)$`)

// ParseLiquidateCommand parses a liquidation command.
// Examples:
//   - "50 to USDC"
//   - "25% into SOL"
//   - "100 to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
func ParseLiquidateCommand(command string) (*LiquidateRequest, error) {
	command = strings.TrimSpace(command)

	matches := liquidatePattern.FindStringSubmatch(strings.ToUpper(command))
	if matches == nil {
		return nil, fmt.Errorf("invalid liquidate command format. Expected: '<percentage> to <token>' (e.g., 'liquidate 50 to USDC')")
	}

	percentage, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid percentage %q: %w", matches[1], err)
	}
	if percentage <= 0 || percentage > 100 {
		return nil, fmt.Errorf("percentage must be in (0, 100], got %s", matches[1])
	}

	// Re-extract the output from the original string so a mint address
	// keeps its case; Base58 is case-sensitive.
	fields := strings.Fields(command)
	output := fields[len(fields)-1]

	return &LiquidateRequest{
		Percentage: percentage,
		Output:     output,
	}, nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format.
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WSOL": "SOL",
	}
	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
