// Package eth recovers signer addresses from personal-message
// signatures (EIP-191).
package eth

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/walletgate/walletgate/core"
)

// SignatureLength is the byte length of a secp256k1 signature with a
// recovery id (r || s || v).
const SignatureLength = 65

// RecoverPersonal recovers the address that signed message under the
// personal-message envelope ("\x19Ethereum Signed Message:\n" + length
// prefix). The envelope must match what the client signer applies; a
// well-formed signature over anything else recovers an unrelated
// address rather than failing.
//
// sigHex is the 0x-prefixed hex signature. The recovery id may be
// 27/28 (as wallets emit) or 0/1. The returned address is EIP-55
// checksummed; callers compare case-insensitively.
func RecoverPersonal(message string, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, core.ErrMalformedSignature
	}
	if len(sig) != SignatureLength {
		return common.Address{}, core.ErrMalformedSignature
	}

	// Don't mutate the caller's view of the signature.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, core.ErrMalformedSignature
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), normalized)
	if err != nil {
		return common.Address{}, core.ErrMalformedSignature
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}
