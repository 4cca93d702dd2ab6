package signer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solsweep/pkg/types"
)

// KeypairSigner signs with an in-process private key. Any failure collapses
// to a single signing-failed classification; there is no user to reject and
// no device to go away.
type KeypairSigner struct {
	key solana.PrivateKey
}

// NewKeypairSigner parses a Base58-encoded private key.
func NewKeypairSigner(base58Key string) (*KeypairSigner, error) {
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeypairSigner{key: key}, nil
}

func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *KeypairSigner) Sign(ctx context.Context, tx *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return types.NewSwapError(types.KindSigningFailed, fmt.Errorf("sign transaction: %w", err))
	}
	return nil
}

func (s *KeypairSigner) PromptText(symbol string) string {
	return fmt.Sprintf("Signing %s swap", symbol)
}
