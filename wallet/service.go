// Package wallet composes the key store, builder and tracker into the
// operations offered by the menu and the HTTP API.
package wallet

import (
	"context"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
	"github.com/AlexZinkM/evm-wallet/internal/tracker"
	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

// Chain is the endpoint surface the service needs: account reads for the
// builder plus broadcast and receipts for the tracker.
type Chain interface {
	txbuilder.ChainReader
	tracker.ChainClient
}

// PriceSource values the native coin in a fiat currency.
type PriceSource interface {
	GetRate(ctx context.Context, coinID, currency string) (string, error)
}

// Faucet credits new accounts on a simulated chain.
type Faucet interface {
	Fund(addr ethcommon.Address, wei *uint256.Int)
}

// Service is safe for concurrent use.
type Service struct {
	keys    *keystore.KeyStore
	chain   Chain
	builder *txbuilder.Builder
	tracker *tracker.Tracker

	prices   PriceSource
	coinID   string
	currency string

	faucet       Faucet
	faucetAmount *uint256.Int

	senders senderLocks
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPrices enables fiat valuation of balances.
func WithPrices(src PriceSource, coinID, currency string) Option {
	return func(s *Service) {
		s.prices = src
		s.coinID = coinID
		s.currency = currency
	}
}

// WithFaucet funds every created or recovered wallet with amount wei.
func WithFaucet(f Faucet, amount *uint256.Int) Option {
	return func(s *Service) {
		s.faucet = f
		s.faucetAmount = amount
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service.
func New(keys *keystore.KeyStore, chain Chain, builder *txbuilder.Builder, tr *tracker.Tracker, opts ...Option) *Service {
	s := &Service{
		keys:    keys,
		chain:   chain,
		builder: builder,
		tracker: tr,
		senders: senderLocks{locks: make(map[ethcommon.Address]*sync.Mutex)},
		logger:  log.Wallet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// senderLocks serializes build and broadcast per sender so two transfers
// from one account never read the same pending nonce.
type senderLocks struct {
	mu    sync.Mutex
	locks map[ethcommon.Address]*sync.Mutex
}

func (l *senderLocks) lock(addr ethcommon.Address) func() {
	l.mu.Lock()
	m, ok := l.locks[addr]
	if !ok {
		m = &sync.Mutex{}
		l.locks[addr] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
