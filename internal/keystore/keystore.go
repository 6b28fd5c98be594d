// Package keystore holds generated key material in memory and hands out
// signing capabilities by registry index.
package keystore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

// DefaultEntropyBits yields a 12-word mnemonic.
const DefaultEntropyBits = 128

// KeyMaterial is one registered key. The address is always derived from the
// private key and never set independently.
type KeyMaterial struct {
	index          int
	privateKey     *secp256k1.PrivateKey
	address        ethcommon.Address
	mnemonic       string
	derivationPath string
}

func (k *KeyMaterial) Index() int { return k.index }

func (k *KeyMaterial) Address() ethcommon.Address { return k.address }

func (k *KeyMaterial) HasMnemonic() bool { return k.mnemonic != "" }

// Account returns the public view of the key.
func (k *KeyMaterial) Account() Account {
	return Account{Index: k.index, Address: k.address, HasMnemonic: k.HasMnemonic()}
}

// Account is the listing view of a key: no secret material.
type Account struct {
	Index       int
	Address     ethcommon.Address
	HasMnemonic bool
}

// Secret is the revealed form of a key, returned only by RevealSecret.
type Secret struct {
	Index          int
	Address        ethcommon.Address
	PrivateKeyHex  string
	Mnemonic       string
	DerivationPath string
}

type options struct {
	mnemonic       bool
	derivationPath string
	entropyBits    int
	logger         zerolog.Logger
}

// Option configures a KeyStore.
type Option func(*options)

// WithMnemonic selects mnemonic-backed generation (the default) or bare random keys.
func WithMnemonic(enabled bool) Option {
	return func(o *options) { o.mnemonic = enabled }
}

// WithDerivationPath sets the BIP-32 path used for mnemonic-backed keys.
func WithDerivationPath(path string) Option {
	return func(o *options) { o.derivationPath = path }
}

// WithEntropyBits sets the mnemonic entropy size (128..256, multiple of 32).
func WithEntropyBits(bits int) Option {
	return func(o *options) { o.entropyBits = bits }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// KeyStore is an ordered in-memory registry of key material.
// Indices are assigned at insertion, start at 0 and never change.
type KeyStore struct {
	opts options

	mu   sync.RWMutex
	keys []*KeyMaterial
}

// New creates an empty KeyStore.
func New(opts ...Option) (*KeyStore, error) {
	o := options{
		mnemonic:       true,
		derivationPath: DefaultDerivationPath,
		entropyBits:    DefaultEntropyBits,
		logger:         log.KeyStore,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := ParseDerivationPath(o.derivationPath); err != nil {
		return nil, err
	}
	if o.entropyBits < 128 || o.entropyBits > 256 || o.entropyBits%32 != 0 {
		return nil, fmt.Errorf("entropy bits must be a multiple of 32 in [128, 256], got %d", o.entropyBits)
	}
	return &KeyStore{opts: o}, nil
}

// CreateKey generates fresh key material and appends it to the registry.
func (s *KeyStore) CreateKey() (*KeyMaterial, error) {
	var km *KeyMaterial
	if s.opts.mnemonic {
		mnemonic, err := GenerateMnemonic(s.opts.entropyBits)
		if err != nil {
			return nil, err
		}
		km, err = s.fromMnemonic(mnemonic)
		if err != nil {
			return nil, err
		}
	} else {
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate private key: %w", err)
		}
		km = &KeyMaterial{privateKey: priv, address: PublicKeyToAddress(priv.PubKey())}
	}

	s.publish(km)
	s.opts.logger.Info().
		Int("index", km.index).
		Str("address", km.address.Hex()).
		Bool("mnemonic", km.HasMnemonic()).
		Msg("Key created")
	return km, nil
}

// Recover restores a key from a recovery phrase and appends it to the registry.
func (s *KeyStore) Recover(mnemonic string) (*KeyMaterial, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	km, err := s.fromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	s.publish(km)
	s.opts.logger.Info().
		Int("index", km.index).
		Str("address", km.address.Hex()).
		Msg("Key recovered from mnemonic")
	return km, nil
}

func (s *KeyStore) fromMnemonic(mnemonic string) (*KeyMaterial, error) {
	priv, err := DeriveKey(mnemonic, s.opts.derivationPath)
	if err != nil {
		return nil, err
	}
	return &KeyMaterial{
		privateKey:     priv,
		address:        PublicKeyToAddress(priv.PubKey()),
		mnemonic:       mnemonic,
		derivationPath: s.opts.derivationPath,
	}, nil
}

// publish assigns the next index and appends km. km must be fully built.
func (s *KeyStore) publish(km *KeyMaterial) {
	s.mu.Lock()
	km.index = len(s.keys)
	s.keys = append(s.keys, km)
	s.mu.Unlock()
}

func (s *KeyStore) get(index int) (*KeyMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.keys) {
		return nil, fmt.Errorf("%w: index %d (have %d keys)", common.ErrKeyNotFound, index, len(s.keys))
	}
	return s.keys[index], nil
}

// Len returns the number of registered keys.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// List returns the public view of every key in index order.
func (s *KeyStore) List() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]Account, len(s.keys))
	for i, km := range s.keys {
		accounts[i] = km.Account()
	}
	return accounts
}

// Account returns the public view of the key at index.
func (s *KeyStore) Account(index int) (Account, error) {
	km, err := s.get(index)
	if err != nil {
		return Account{}, err
	}
	return km.Account(), nil
}

// Signer returns the signing capability for the key at index.
func (s *KeyStore) Signer(index int) (Signer, error) {
	km, err := s.get(index)
	if err != nil {
		return nil, err
	}
	return &keySigner{km: km}, nil
}

// RevealSecret returns the secret material of the key at index.
// It is for operator inspection only and is audit-logged.
func (s *KeyStore) RevealSecret(index int) (*Secret, error) {
	km, err := s.get(index)
	if err != nil {
		return nil, err
	}

	raw := km.privateKey.Serialize()
	defer clear(raw)

	s.opts.logger.Warn().
		Int("index", km.index).
		Str("address", km.address.Hex()).
		Msg("Secret material revealed")

	return &Secret{
		Index:          km.index,
		Address:        km.address,
		PrivateKeyHex:  hexutil.Encode(raw),
		Mnemonic:       km.mnemonic,
		DerivationPath: km.derivationPath,
	}, nil
}
