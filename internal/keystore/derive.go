package keystore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/sha3"
)

// DefaultDerivationPath is the BIP-44 path of the first external Ethereum account.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// PrivateKeySize is the length of a raw secp256k1 scalar.
const PrivateKeySize = 32

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidPath     = errors.New("invalid derivation path")
)

// ParseDerivationPath converts "m/44'/60'/0'/0/0" into BIP-32 child indices.
// Both ' and h mark a hardened level.
func ParseDerivationPath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m/", ErrInvalidPath, path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || n >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("%w: bad level %q in %q", ErrInvalidPath, part, path)
		}
		idx := uint32(n)
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// GenerateMnemonic creates a new BIP-39 mnemonic from CSPRNG entropy.
func GenerateMnemonic(entropyBits int) (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer clear(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DeriveKey derives the private key at path from a mnemonic (empty passphrase).
func DeriveKey(mnemonic, path string) (*secp256k1.PrivateKey, error) {
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer clear(seed)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range indices {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	raw := key.Key
	if len(raw) == PrivateKeySize+1 && raw[0] == 0 {
		raw = raw[1:]
	}
	if len(raw) != PrivateKeySize {
		return nil, fmt.Errorf("derived key has %d bytes", len(raw))
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// PublicKeyToAddress returns keccak256(uncompressed_pubkey[1:])[12:].
func PublicKeyToAddress(pub *secp256k1.PublicKey) ethcommon.Address {
	uncompressed := pub.SerializeUncompressed()

	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	sum := h.Sum(nil)

	return ethcommon.BytesToAddress(sum[12:])
}

// AddressFromPrivateKey derives the public address of a raw 32-byte key.
// It is a pure function: the same key always yields the same address.
func AddressFromPrivateKey(raw []byte) (ethcommon.Address, error) {
	if len(raw) != PrivateKeySize {
		return ethcommon.Address{}, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(raw))
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	defer priv.Zero()
	if priv.Key.IsZero() {
		return ethcommon.Address{}, errors.New("private key is zero")
	}
	return PublicKeyToAddress(priv.PubKey()), nil
}
