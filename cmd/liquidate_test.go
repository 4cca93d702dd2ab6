package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecimalsLookup struct {
	decimals uint8
	err      error
	calls    int
}

func (s *stubDecimalsLookup) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	s.calls++
	return s.decimals, s.err
}

func TestResolveOutputAsset_KnownSymbol(t *testing.T) {
	lookup := &stubDecimalsLookup{}

	mint, info, err := resolveOutputAsset(context.Background(), lookup, "usdc")
	require.NoError(t, err)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", mint)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.Zero(t, lookup.calls)
}

func TestResolveOutputAsset_AliasedSymbol(t *testing.T) {
	mint, info, err := resolveOutputAsset(context.Background(), &stubDecimalsLookup{}, "WSOL")
	require.NoError(t, err)
	assert.Equal(t, "So11111111111111111111111111111111111111112", mint)
	assert.Equal(t, "SOL", info.Symbol)
}

func TestResolveOutputAsset_UnknownMintUsesOnChainDecimals(t *testing.T) {
	lookup := &stubDecimalsLookup{decimals: 9}
	unknownMint := "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

	mint, info, err := resolveOutputAsset(context.Background(), lookup, unknownMint)
	require.NoError(t, err)
	assert.Equal(t, unknownMint, mint)
	assert.Equal(t, uint8(9), info.Decimals)
	assert.Equal(t, 1, lookup.calls)
}

func TestResolveOutputAsset_DecimalsLookupFailure(t *testing.T) {
	lookup := &stubDecimalsLookup{err: errors.New("mint account not found")}

	_, _, err := resolveOutputAsset(context.Background(), lookup, "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")
	assert.Error(t, err)
}

func TestResolveOutputAsset_Garbage(t *testing.T) {
	_, _, err := resolveOutputAsset(context.Background(), &stubDecimalsLookup{}, "not-a-token!!")
	assert.Error(t, err)
}

func TestConfirmationError(t *testing.T) {
	tests := []struct {
		name        string
		jsonOutput  bool
		skipPrompt  bool
		autoConfirm bool
		wantErr     bool
	}{
		{name: "interactive run prompts", jsonOutput: false},
		{name: "json without consent refused", jsonOutput: true, wantErr: true},
		{name: "json with --yes", jsonOutput: true, skipPrompt: true},
		{name: "json with auto_confirm", jsonOutput: true, autoConfirm: true},
		{name: "interactive with --yes", skipPrompt: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := confirmationError(tt.jsonOutput, tt.skipPrompt, tt.autoConfirm)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
