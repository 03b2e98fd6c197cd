package eth

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethcdm/faucet/core"
)

func signMessage(t *testing.T, message string) (address string, signature string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestRecoverAddressRoundTrip(t *testing.T) {
	message := "Test Faucet\nChallenge ID: 42"
	address, signature := signMessage(t, message)

	recovered, err := RecoverAddress(message, signature)
	require.NoError(t, err)
	require.Equal(t, address, recovered.Hex())
}

func TestRecoverAddressAcceptsLegacyV(t *testing.T) {
	message := "legacy recovery id"
	address, signature := signMessage(t, message)

	// Wallets commonly return V as 27/28 instead of 0/1.
	sig := hexutil.MustDecode(signature)
	sig[crypto.RecoveryIDOffset] += 27

	recovered, err := RecoverAddress(message, hexutil.Encode(sig))
	require.NoError(t, err)
	require.Equal(t, address, recovered.Hex())
}

func TestVerifyOwnership(t *testing.T) {
	message := "prove it"
	address, signature := signMessage(t, message)

	require.NoError(t, VerifyOwnership(message, signature, address))

	// Lowercased address must still match after normalization.
	require.NoError(t, VerifyOwnership(message, signature, strings.ToLower(address)))
}

func TestVerifyOwnershipRejectsOtherSigner(t *testing.T) {
	message := "prove it"
	address, _ := signMessage(t, message)
	_, otherSignature := signMessage(t, message)

	err := VerifyOwnership(message, otherSignature, address)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyOwnershipRejectsTamperedMessage(t *testing.T) {
	address, signature := signMessage(t, "original message")

	err := VerifyOwnership("tampered message", signature, address)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyOwnershipRejectsMalformedInput(t *testing.T) {
	message := "prove it"
	address, signature := signMessage(t, message)

	require.ErrorIs(t, VerifyOwnership(message, "not-hex", address), core.ErrInvalidSignature)
	require.ErrorIs(t, VerifyOwnership(message, "0x0102", address), core.ErrInvalidSignature)
	require.ErrorIs(t, VerifyOwnership(message, signature, "not-an-address"), core.ErrInvalidAddress)
}
