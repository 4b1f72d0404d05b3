package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/walletgate/core"
)

// signPersonal signs message the way a wallet does: personal-message
// envelope, recovery id shifted to 27/28.
func signPersonal(t *testing.T, message string) (sigHex string, address string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27

	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestRecoverPersonal(t *testing.T) {
	sigHex, address := signPersonal(t, "challenge-nonce")

	recovered, err := RecoverPersonal("challenge-nonce", sigHex)
	require.NoError(t, err)
	require.Equal(t, address, recovered.Hex())
}

func TestRecoverPersonalAcceptsUnshiftedRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte("c1")), key)
	require.NoError(t, err)

	recovered, err := RecoverPersonal("c1", hexutil.Encode(sig))
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestRecoverPersonalWrongMessageYieldsOtherAddress(t *testing.T) {
	sigHex, address := signPersonal(t, "challenge-nonce")

	// Recovery over a different message must not fail; it must yield
	// an address the signer does not control.
	recovered, err := RecoverPersonal("another-challenge", sigHex)
	require.NoError(t, err)
	require.NotEqual(t, address, recovered.Hex())
}

func TestRecoverPersonalMalformed(t *testing.T) {
	badRecoveryID := make([]byte, 65)
	badRecoveryID[64] = 7

	for name, sigHex := range map[string]string{
		"not hex":           "zzzz",
		"missing 0x prefix": "deadbeef",
		"too short":         "0xdeadbeef",
		"bad recovery id":   hexutil.Encode(badRecoveryID),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := RecoverPersonal("c1", sigHex)
			require.ErrorIs(t, err, core.ErrMalformedSignature)
		})
	}
}

func TestRecoverPersonalMutatedSignature(t *testing.T) {
	sigHex, address := signPersonal(t, "challenge-nonce")
	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)

	// Flipping any single bit of r||s must never silently recover the
	// signer's address.
	for _, i := range []int{0, 17, 40, 63} {
		mutated := make([]byte, len(sig))
		copy(mutated, sig)
		mutated[i] ^= 0x01

		recovered, err := RecoverPersonal("challenge-nonce", hexutil.Encode(mutated))
		if err != nil {
			require.ErrorIs(t, err, core.ErrMalformedSignature)
			continue
		}
		require.NotEqual(t, address, recovered.Hex())
	}
}
