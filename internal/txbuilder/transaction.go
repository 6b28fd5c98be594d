package txbuilder

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
)

// ChainParameters are the network values fixed into a transaction at build time.
type ChainParameters struct {
	ChainID  uint64
	GasPrice *uint256.Int
	GasLimit uint64
}

// UnsignedTransaction is a fully specified legacy value transfer.
type UnsignedTransaction struct {
	From   ethcommon.Address
	To     ethcommon.Address
	Value  *uint256.Int
	Nonce  uint64
	Params ChainParameters
}

// MaxFee is GasLimit * GasPrice.
func (u *UnsignedTransaction) MaxFee() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(u.Params.GasLimit), u.Params.GasPrice)
}

// Cost is Value + MaxFee, the balance the sender must hold.
func (u *UnsignedTransaction) Cost() *uint256.Int {
	return new(uint256.Int).Add(u.Value, u.MaxFee())
}

func (u *UnsignedTransaction) chainSigner() types.Signer {
	return types.NewEIP155Signer(new(big.Int).SetUint64(u.Params.ChainID))
}

func (u *UnsignedTransaction) legacy() *types.Transaction {
	to := u.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    u.Nonce,
		GasPrice: u.Params.GasPrice.ToBig(),
		Gas:      u.Params.GasLimit,
		To:       &to,
		Value:    u.Value.ToBig(),
	})
}

// SigningHash is the EIP-155 hash the sender signs.
func (u *UnsignedTransaction) SigningHash() ethcommon.Hash {
	return u.chainSigner().Hash(u.legacy())
}

// SignedTransaction is an UnsignedTransaction with its signature and
// canonical encoding. It is immutable once produced.
type SignedTransaction struct {
	unsigned  UnsignedTransaction
	signature []byte
	raw       []byte
	hash      ethcommon.Hash
}

// Unsigned returns a copy of the signed content.
func (s *SignedTransaction) Unsigned() UnsignedTransaction {
	u := s.unsigned
	u.Value = new(uint256.Int).Set(s.unsigned.Value)
	u.Params.GasPrice = new(uint256.Int).Set(s.unsigned.Params.GasPrice)
	return u
}

// Signature returns a copy of the 65-byte [R || S || V] signature.
func (s *SignedTransaction) Signature() []byte {
	return bytes.Clone(s.signature)
}

// Raw returns a copy of the canonical RLP encoding.
func (s *SignedTransaction) Raw() []byte {
	return bytes.Clone(s.raw)
}

// Hash is keccak256 of the canonical encoding.
func (s *SignedTransaction) Hash() ethcommon.Hash {
	return s.hash
}

// Assemble checks the fields of a transfer and returns it unsigned. No network access.
func Assemble(from, to ethcommon.Address, value *uint256.Int, nonce uint64, params ChainParameters) (*UnsignedTransaction, error) {
	if value == nil || value.IsZero() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", common.ErrInvalidAmount)
	}
	if to == (ethcommon.Address{}) {
		return nil, fmt.Errorf("%w: refusing to send to the zero address", common.ErrInvalidAddress)
	}
	if params.ChainID == 0 {
		return nil, errors.New("chain id must be set")
	}
	if params.GasPrice == nil {
		return nil, errors.New("gas price must be set")
	}
	if params.GasLimit == 0 {
		return nil, errors.New("gas limit must be set")
	}
	if _, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(params.GasLimit), params.GasPrice); overflow {
		return nil, fmt.Errorf("%w: fee exceeds the 256-bit range", common.ErrInvalidAmount)
	}

	return &UnsignedTransaction{
		From:  from,
		To:    to,
		Value: new(uint256.Int).Set(value),
		Nonce: nonce,
		Params: ChainParameters{
			ChainID:  params.ChainID,
			GasPrice: new(uint256.Int).Set(params.GasPrice),
			GasLimit: params.GasLimit,
		},
	}, nil
}

// Sign has signer sign u and returns the encoded transaction. Signing is
// deterministic: the same input and key give the same bytes. The recovered
// sender must equal u.From.
func Sign(u *UnsignedTransaction, signer keystore.Signer) (*SignedTransaction, error) {
	if signer.Address() != u.From {
		return nil, fmt.Errorf("signer %s does not own sender %s", signer.Address().Hex(), u.From.Hex())
	}

	chainSigner := u.chainSigner()
	tx := u.legacy()

	sig, err := signer.SignHash(chainSigner.Hash(tx))
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	signed, err := tx.WithSignature(chainSigner, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to attach signature: %w", err)
	}

	sender, err := types.Sender(chainSigner, signed)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender: %w", err)
	}
	if sender != u.From {
		return nil, fmt.Errorf("recovered sender %s does not match %s", sender.Hex(), u.From.Hex())
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	return &SignedTransaction{
		unsigned:  *u,
		signature: sig,
		raw:       raw,
		hash:      signed.Hash(),
	}, nil
}

// Decode parses a canonical encoding, checks it belongs to chainID and
// recovers the sender. It is the local validation done before broadcast.
func Decode(raw []byte, chainID uint64) (*SignedTransaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("malformed transaction: %w", err)
	}
	if tx.Type() != types.LegacyTxType || !tx.Protected() {
		return nil, errors.New("not an EIP-155 legacy transaction")
	}
	if tx.ChainId().Cmp(new(big.Int).SetUint64(chainID)) != 0 {
		return nil, fmt.Errorf("%w: transaction is for chain %s, want %d", common.ErrChainMismatch, tx.ChainId(), chainID)
	}
	if tx.To() == nil {
		return nil, errors.New("contract creation is not a transfer")
	}

	chainSigner := types.NewEIP155Signer(new(big.Int).SetUint64(chainID))
	from, err := types.Sender(chainSigner, tx)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return nil, fmt.Errorf("%w: value exceeds the 256-bit range", common.ErrInvalidAmount)
	}
	gasPrice, overflow := uint256.FromBig(tx.GasPrice())
	if overflow {
		return nil, errors.New("gas price exceeds the 256-bit range")
	}

	v, r, s := tx.RawSignatureValues()
	sig := make([]byte, keystore.SignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(new(big.Int).Sub(v, new(big.Int).SetUint64(chainID*2+35)).Uint64())

	return &SignedTransaction{
		unsigned: UnsignedTransaction{
			From:  from,
			To:    *tx.To(),
			Value: value,
			Nonce: tx.Nonce(),
			Params: ChainParameters{
				ChainID:  chainID,
				GasPrice: gasPrice,
				GasLimit: tx.Gas(),
			},
		},
		signature: sig,
		raw:       bytes.Clone(raw),
		hash:      tx.Hash(),
	}, nil
}
