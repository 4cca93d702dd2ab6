// Package signer abstracts "something that can produce a valid signature
// for a transaction": an in-process keypair or a hardware device that needs
// physical confirmation per transaction.
package signer

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TransactionSigner is the signing capability handed to the orchestrator.
// It is a shared, stateful external resource: callers must keep at most one
// Sign call outstanding at a time.
type TransactionSigner interface {
	// PublicKey is the fee payer identity the signer signs for.
	PublicKey() solana.PublicKey

	// Sign signs tx in place. The call blocks until the signature is
	// produced; with a hardware device that can take as long as the user
	// takes to press the button, bounded only by the device's own timeout.
	Sign(ctx context.Context, tx *solana.Transaction) error

	// PromptText is the status line to show the user while Sign is
	// pending. Hardware signers tell the user to act on the device.
	PromptText(symbol string) string
}
