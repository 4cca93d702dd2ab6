package portfolio

import "strings"

// TokenInfo is the display metadata for a mint.
type TokenInfo struct {
	Symbol   string
	Decimals uint8
}

// NativeMint is the wrapped-SOL mint, used to represent the native balance.
const NativeMint = "So11111111111111111111111111111111111111112"

// knownTokens covers the common mints so holdings render with real symbols
// without a metadata lookup. Anything else falls back to a shortened mint
// and on-chain decimals.
var knownTokens = map[string]TokenInfo{
	NativeMint: {Symbol: "SOL", Decimals: 9},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Decimals: 6},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Decimals: 6},
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {Symbol: "JUP", Decimals: 6},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Symbol: "BONK", Decimals: 5},
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": {Symbol: "RAY", Decimals: 6},
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  {Symbol: "mSOL", Decimals: 9},
}

// KnownTokens returns a copy of the built-in token table, keyed by mint.
func KnownTokens() map[string]TokenInfo {
	out := make(map[string]TokenInfo, len(knownTokens))
	for mint, info := range knownTokens {
		out[mint] = info
	}
	return out
}

// LookupToken resolves a mint to its metadata, if known.
func LookupToken(mint string) (TokenInfo, bool) {
	info, ok := knownTokens[mint]
	return info, ok
}

// FindMintBySymbol resolves a symbol like "USDC" to its mint.
func FindMintBySymbol(symbol string) (string, TokenInfo, bool) {
	for mint, info := range knownTokens {
		if strings.EqualFold(info.Symbol, symbol) {
			return mint, info, true
		}
	}
	return "", TokenInfo{}, false
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + ".." + mint[len(mint)-4:]
}
