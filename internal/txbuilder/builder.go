// Package txbuilder assembles and signs value-transfer transactions.
package txbuilder

import (
	"context"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AlexZinkM/evm-wallet/internal/client"
	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

// ChainReader is the account and chain state the builder needs.
type ChainReader interface {
	GetBalance(ctx context.Context, address ethcommon.Address) (*uint256.Int, error)
	GetNonce(ctx context.Context, address ethcommon.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	GasPrice(ctx context.Context) (*uint256.Int, error)
	EstimateGas(ctx context.Context, args client.CallArgs) (uint64, error)
}

// Builder turns (signer, recipient, amount) into a signed transaction using
// state read from the endpoint at build time. Nothing is cached.
type Builder struct {
	reader  ChainReader
	chainID uint64
	logger  zerolog.Logger
}

// New creates a Builder. expectedChainID is the configured network's chain id;
// zero accepts whatever the endpoint reports.
func New(reader ChainReader, expectedChainID uint64) *Builder {
	return &Builder{
		reader:  reader,
		chainID: expectedChainID,
		logger:  log.Builder,
	}
}

// WithLogger returns a copy of b that logs to l.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	cp := *b
	cp.logger = l
	return &cp
}

// Build validates the request, reads nonce, chain id, gas price, gas estimate
// and balance, then assembles and signs the transfer.
// Amount and recipient are validated before any network call.
func (b *Builder) Build(ctx context.Context, signer keystore.Signer, recipient, amount string) (*SignedTransaction, error) {
	value, err := common.EtherToWei(amount)
	if err != nil {
		return nil, err
	}
	if value.IsZero() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", common.ErrInvalidAmount)
	}
	to, err := common.ParseAddress(recipient)
	if err != nil {
		return nil, err
	}
	if to == (ethcommon.Address{}) {
		return nil, fmt.Errorf("%w: refusing to send to the zero address", common.ErrInvalidAddress)
	}
	from := signer.Address()

	var (
		chainID  *big.Int
		nonce    uint64
		gasPrice *uint256.Int
		balance  *uint256.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chainID, err = b.reader.ChainID(gctx)
		return err
	})
	g.Go(func() (err error) {
		nonce, err = b.reader.GetNonce(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		gasPrice, err = b.reader.GasPrice(gctx)
		return err
	})
	g.Go(func() (err error) {
		balance, err = b.reader.GetBalance(gctx, from)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !chainID.IsUint64() || (b.chainID != 0 && chainID.Uint64() != b.chainID) {
		return nil, fmt.Errorf("%w: endpoint serves chain %s, configured %d", common.ErrChainMismatch, chainID, b.chainID)
	}
	if balance.Lt(value) {
		return nil, fmt.Errorf("%w: balance %s ETH, need %s ETH",
			common.ErrInsufficientFunds, common.WeiToEther(balance), common.WeiToEther(value))
	}

	gasLimit, err := b.reader.EstimateGas(ctx, client.CallArgs{
		From:  from,
		To:    &to,
		Value: (*hexutil.Big)(value.ToBig()),
	})
	if err != nil {
		return nil, err
	}

	unsigned, err := Assemble(from, to, value, nonce, ChainParameters{
		ChainID:  chainID.Uint64(),
		GasPrice: gasPrice,
		GasLimit: gasLimit,
	})
	if err != nil {
		return nil, err
	}
	if balance.Lt(unsigned.Cost()) {
		return nil, fmt.Errorf("%w: balance %s ETH, need %s ETH (amount %s + max fee %s)",
			common.ErrInsufficientFunds, common.WeiToEther(balance), common.WeiToEther(unsigned.Cost()),
			common.WeiToEther(value), common.WeiToEther(unsigned.MaxFee()))
	}

	signed, err := Sign(unsigned, signer)
	if err != nil {
		return nil, err
	}

	b.logger.Info().
		Str("from", from.Hex()).
		Str("to", to.Hex()).
		Str("value_eth", common.WeiToEther(value)).
		Uint64("nonce", nonce).
		Uint64("gas", gasLimit).
		Str("gas_price_gwei", common.WeiToGwei(gasPrice)).
		Msg("Transaction built")
	return signed, nil
}
