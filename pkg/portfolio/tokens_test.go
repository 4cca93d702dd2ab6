package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupToken(t *testing.T) {
	info, ok := LookupToken(NativeMint)
	require.True(t, ok)
	assert.Equal(t, "SOL", info.Symbol)
	assert.Equal(t, uint8(9), info.Decimals)

	_, ok = LookupToken("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")
	assert.False(t, ok)
}

func TestFindMintBySymbol(t *testing.T) {
	mint, info, ok := FindMintBySymbol("usdc")
	require.True(t, ok)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", mint)
	assert.Equal(t, uint8(6), info.Decimals)

	mint, _, ok = FindMintBySymbol("MSOL")
	require.True(t, ok)
	assert.Equal(t, "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So", mint)

	_, _, ok = FindMintBySymbol("DOGE")
	assert.False(t, ok)
}

func TestShortMint(t *testing.T) {
	assert.Equal(t, "EPjF..Dt1v", shortMint("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
	assert.Equal(t, "short", shortMint("short"))
}
