package keystore

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// SignatureSize is the length of an [R || S || V] recoverable signature.
const SignatureSize = 65

// compactRecoveryBase is the header offset of a decred compact signature.
const compactRecoveryBase = 27

// Signer is the capability to sign on behalf of one registered key.
// The private key never leaves this package.
type Signer interface {
	Address() ethcommon.Address
	// SignHash returns a 65-byte [R || S || V] signature with V in {0, 1}.
	// Signing is deterministic (RFC 6979).
	SignHash(hash ethcommon.Hash) ([]byte, error)
}

type keySigner struct {
	km *KeyMaterial
}

func (s *keySigner) Address() ethcommon.Address {
	return s.km.address
}

func (s *keySigner) SignHash(hash ethcommon.Hash) ([]byte, error) {
	compact := ecdsa.SignCompact(s.km.privateKey, hash[:], false)
	if len(compact) != SignatureSize {
		return nil, fmt.Errorf("unexpected compact signature length %d", len(compact))
	}

	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	sig[64] = compact[0] - compactRecoveryBase
	return sig, nil
}

// RecoverAddress returns the address that produced sig over hash.
func RecoverAddress(hash ethcommon.Hash, sig []byte) (ethcommon.Address, error) {
	if len(sig) != SignatureSize {
		return ethcommon.Address{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(sig))
	}
	if sig[64] > 1 {
		return ethcommon.Address{}, errors.New("signature recovery id must be 0 or 1")
	}

	compact := make([]byte, SignatureSize)
	compact[0] = sig[64] + compactRecoveryBase
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return PublicKeyToAddress(pub), nil
}
