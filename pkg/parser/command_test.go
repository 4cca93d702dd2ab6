package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiquidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    LiquidateRequest
		wantErr bool
	}{
		{
			name:    "plain percentage with to",
			command: "50 to USDC",
			want:    LiquidateRequest{Percentage: 50, Output: "USDC"},
		},
		{
			name:    "percent sign with into",
			command: "25% into SOL",
			want:    LiquidateRequest{Percentage: 25, Output: "SOL"},
		},
		{
			name:    "fractional percentage",
			command: "12.5 to USDT",
			want:    LiquidateRequest{Percentage: 12.5, Output: "USDT"},
		},
		{
			name:    "mixed case keywords",
			command: "100 Into usdc",
			want:    LiquidateRequest{Percentage: 100, Output: "usdc"},
		},
		{
			name:    "surrounding whitespace",
			command: "  75 to USDC  ",
			want:    LiquidateRequest{Percentage: 75, Output: "USDC"},
		},
		{
			name:    "mint address keeps case",
			command: "40 to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			want:    LiquidateRequest{Percentage: 40, Output: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		},
		{name: "zero percentage", command: "0 to USDC", wantErr: true},
		{name: "over one hundred", command: "150 to USDC", wantErr: true},
		{name: "missing keyword", command: "50 USDC", wantErr: true},
		{name: "missing output", command: "50 to", wantErr: true},
		{name: "not a number", command: "half to USDC", wantErr: true},
		{name: "empty", command: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiquidateCommand(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "SOL", NormalizeTokenSymbol("wsol"))
	assert.Equal(t, "SOL", NormalizeTokenSymbol(" WSOL "))
	assert.Equal(t, "USDC", NormalizeTokenSymbol("usdc"))
	assert.Equal(t, "JUP", NormalizeTokenSymbol("JUP"))
}
