// Package eth implements personal_sign signature recovery for claimant
// address ownership proofs.
package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethcdm/faucet/core"
)

// RecoverAddress recovers the signer of an EIP-191 personal_sign message.
// The 65-byte signature may carry V as 0/1 or 27/28; both forms are
// accepted.
func RecoverAddress(message string, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// crypto.SigToPub expects the recovery id in the last byte as 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering public key: %w", core.ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyOwnership checks that signature over message was produced by the
// key controlling claimed. Both addresses are normalized before the
// comparison, so mixed-case and lowercase inputs are equivalent.
func VerifyOwnership(message, signature, claimed string) error {
	if !common.IsHexAddress(claimed) {
		return core.ErrInvalidAddress
	}

	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if recovered != common.HexToAddress(claimed) {
		return core.ErrInvalidSignature
	}
	return nil
}
