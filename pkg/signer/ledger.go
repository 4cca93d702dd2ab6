package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solsweep/pkg/types"
)

// Status words returned by the Solana app on a Ledger device.
const (
	statusUserRejected   uint16 = 0x6985 // user declined on the device
	statusDeviceLocked   uint16 = 0x5515
	statusAppNotOpen     uint16 = 0x6e00
	statusAppNotOpenAlt  uint16 = 0x6e01
	statusInstructionErr uint16 = 0x6d00
)

// Sentinel errors a DeviceTransport reports for transport-level failures.
var (
	// ErrDeviceTimeout means the device did not answer within its own
	// confirmation window.
	ErrDeviceTimeout = errors.New("signing device timed out")

	// ErrDeviceNotFound means no device is connected or it disappeared
	// mid-session.
	ErrDeviceNotFound = errors.New("signing device not available")
)

// DeviceError is a structured status word from the device. Classification
// keys off the code, never off message text.
type DeviceError struct {
	Code uint16
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device returned status 0x%04x", e.Code)
}

// deviceStatusKinds maps device status words to failure classifications.
var deviceStatusKinds = map[uint16]types.ErrorKind{
	statusUserRejected:   types.KindSignerRejected,
	statusDeviceLocked:   types.KindSignerUnavailable,
	statusAppNotOpen:     types.KindSignerUnavailable,
	statusAppNotOpenAlt:  types.KindSignerUnavailable,
	statusInstructionErr: types.KindSigningFailed,
}

// DeviceTransport is the wire to a hardware signing device. SignMessage
// blocks until the user confirms or the device gives up; failures are
// *DeviceError status words or the transport sentinels above.
type DeviceTransport interface {
	SignMessage(ctx context.Context, derivationPath string, message []byte) ([]byte, error)
}

// LedgerSigner signs through a hardware device. Every transaction requires
// a physical confirmation, so only one Sign call may be in flight.
type LedgerSigner struct {
	device DeviceTransport
	path   string
	pub    solana.PublicKey
}

// NewLedgerSigner wraps a device transport signing for pub at the given
// derivation path.
func NewLedgerSigner(device DeviceTransport, derivationPath string, pub solana.PublicKey) *LedgerSigner {
	return &LedgerSigner{device: device, path: derivationPath, pub: pub}
}

func (s *LedgerSigner) PublicKey() solana.PublicKey {
	return s.pub
}

func (s *LedgerSigner) Sign(ctx context.Context, tx *solana.Transaction) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return types.NewSwapError(types.KindSigningFailed, fmt.Errorf("serialize message: %w", err))
	}

	sigBytes, err := s.device.SignMessage(ctx, s.path, msg)
	if err != nil {
		return classifyDeviceError(err)
	}
	if len(sigBytes) != 64 {
		return types.Errorf(types.KindSigningFailed, "device returned a %d-byte signature", len(sigBytes))
	}

	numRequired := int(tx.Message.Header.NumRequiredSignatures)
	if numRequired > len(tx.Message.AccountKeys) {
		return types.Errorf(types.KindSigningFailed, "malformed transaction: %d signers for %d accounts", numRequired, len(tx.Message.AccountKeys))
	}

	idx := -1
	for i, key := range tx.Message.AccountKeys[:numRequired] {
		if key.Equals(s.pub) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Errorf(types.KindSigningFailed, "%s is not a required signer of this transaction", s.pub)
	}

	if len(tx.Signatures) < numRequired {
		sigs := make([]solana.Signature, numRequired)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	copy(tx.Signatures[idx][:], sigBytes)
	return nil
}

func (s *LedgerSigner) PromptText(symbol string) string {
	return fmt.Sprintf("Confirm %s swap on your device", symbol)
}

func classifyDeviceError(err error) error {
	var de *DeviceError
	switch {
	case errors.As(err, &de):
		if kind, ok := deviceStatusKinds[de.Code]; ok {
			return types.NewSwapError(kind, err)
		}
		return types.NewSwapError(types.KindUnknown, err)
	case errors.Is(err, ErrDeviceTimeout):
		return types.NewSwapError(types.KindSignerTimeout, err)
	case errors.Is(err, ErrDeviceNotFound):
		return types.NewSwapError(types.KindSignerUnavailable, err)
	default:
		return types.NewSwapError(types.KindUnknown, err)
	}
}
