// Package portfolio supplies read-only snapshots of a wallet's token
// balances with USD prices attached. The orchestrator never mutates these;
// it re-requests a snapshot after a run to refresh balances.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"solsweep/pkg/types"
)

// PriceSource returns USD unit prices keyed by mint. Missing entries mean
// the price is unknown, not zero supply.
type PriceSource interface {
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// Service reads balances from the RPC node and joins them with prices.
type Service struct {
	rpc        *rpc.Client
	prices     PriceSource
	commitment rpc.CommitmentType
}

// New creates a holdings service.
func New(rpcClient *rpc.Client, prices PriceSource, commitment rpc.CommitmentType) *Service {
	return &Service{rpc: rpcClient, prices: prices, commitment: commitment}
}

// Holdings returns the wallet's non-empty positions, native SOL included,
// sorted by USD value descending (ties broken by symbol) so downstream plan
// order is deterministic. Assets without a price are kept with zero value.
func (s *Service) Holdings(ctx context.Context, owner solana.PublicKey) ([]types.AssetHolding, error) {
	holdings := make([]types.AssetHolding, 0, 8)

	balance, err := s.rpc.GetBalance(ctx, owner, s.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	if balance.Value > 0 {
		holdings = append(holdings, types.AssetHolding{
			Mint:     NativeMint,
			Symbol:   "SOL",
			Decimals: 9,
			Quantity: float64(balance.Value) / 1e9,
		})
	}

	tokenHoldings, err := s.tokenHoldings(ctx, owner)
	if err != nil {
		return nil, err
	}
	holdings = append(holdings, tokenHoldings...)

	mints := make([]string, 0, len(holdings))
	for _, h := range holdings {
		mints = append(mints, h.Mint)
	}
	prices, err := s.prices.Prices(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	for i := range holdings {
		if price, ok := prices[holdings[i].Mint]; ok {
			holdings[i].UnitPriceUSD = price
			holdings[i].ValueUSD = holdings[i].Quantity * price
		}
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].ValueUSD != holdings[j].ValueUSD {
			return holdings[i].ValueUSD > holdings[j].ValueUSD
		}
		return holdings[i].Symbol < holdings[j].Symbol
	})

	return holdings, nil
}

func (s *Service) tokenHoldings(ctx context.Context, owner solana.PublicKey) ([]types.AssetHolding, error) {
	out, err := s.rpc.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{ProgramId: token.ProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	holdings := make([]types.AssetHolding, 0, len(out.Value))
	for _, item := range out.Value {
		var account token.Account
		if err := bin.NewBinDecoder(item.Account.Data.GetBinary()).Decode(&account); err != nil {
			continue
		}
		if account.Amount == 0 {
			continue
		}

		mint := account.Mint.String()
		info, ok := LookupToken(mint)
		if !ok {
			decimals, derr := s.MintDecimals(ctx, account.Mint)
			if derr != nil {
				continue
			}
			info = TokenInfo{Symbol: shortMint(mint), Decimals: decimals}
		}

		holdings = append(holdings, types.AssetHolding{
			Mint:     mint,
			Symbol:   info.Symbol,
			Decimals: info.Decimals,
			Quantity: float64(account.Amount) / math.Pow10(int(info.Decimals)),
		})
	}

	return holdings, nil
}

// MintDecimals reads the decimals field straight out of the mint account.
// The field sits at byte offset 44 of the mint layout.
func (s *Service) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	accountInfo, err := s.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if accountInfo.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}

	data := accountInfo.Value.Data.GetBinary()
	if len(data) < 45 {
		return 0, fmt.Errorf("invalid mint account data")
	}
	return data[44], nil
}
