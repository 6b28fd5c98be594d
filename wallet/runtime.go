package wallet

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/evm-wallet/internal/client"
	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/config"
	"github.com/AlexZinkM/evm-wallet/internal/devnode"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
	"github.com/AlexZinkM/evm-wallet/internal/storage"
	"github.com/AlexZinkM/evm-wallet/internal/tracker"
	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

// Runtime is a Service wired from configuration together with the
// resources it owns.
type Runtime struct {
	Service  *Service
	Endpoint string // redacted
	ChainID  uint64
	// Node is the in-process simulated chain, nil unless simulating.
	Node *devnode.Node

	db storage.DB
}

// Open wires a Service from cfg. In simulate mode it starts an in-process
// node on a loopback port and funds new wallets from its faucet.
func Open(cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{ChainID: cfg.ExpectedChainID()}

	var opts []Option
	endpoint := ""
	if cfg.Simulate {
		rt.Node = devnode.New(devnode.WithChainID(rt.ChainID))
		if err := rt.Node.Start("127.0.0.1:0"); err != nil {
			return nil, err
		}
		endpoint = rt.Node.URL()

		amount, err := common.EtherToWei(cfg.SimFundETH)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("SIM_FUND_AMOUNT: %w", err)
		}
		opts = append(opts, WithFaucet(rt.Node, amount))
	} else {
		var err error
		if endpoint, err = cfg.Endpoint(); err != nil {
			return nil, err
		}
	}

	keys, err := keystore.New(
		keystore.WithMnemonic(cfg.KeyMnemonic),
		keystore.WithDerivationPath(cfg.DerivationPath),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	db, err := storage.Open(cfg.JournalPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	rt.db = db

	c := client.NewEthereumClient(endpoint, cfg.RequestTimeout)
	rt.Endpoint = c.Endpoint()

	tr := tracker.New(c, tracker.Config{
		ChainID:          rt.ChainID,
		PollInterval:     cfg.PollInterval,
		ConfirmTimeout:   cfg.ConfirmTimeout,
		Confirmations:    cfg.Confirmations,
		BroadcastRetries: cfg.BroadcastRetries,
	}, tracker.WithJournal(tracker.NewJournal(db)))

	if cfg.PriceCurrency != "" {
		n, _ := config.LookupNetwork(cfg.Network)
		opts = append(opts, WithPrices(client.NewCoinGeckoClient(), n.CoinID, cfg.PriceCurrency))
	}

	rt.Service = New(keys, c, txbuilder.New(c, rt.ChainID), tr, opts...)

	log.Wallet.Info().
		Str("network", cfg.Network).
		Uint64("chain_id", rt.ChainID).
		Str("endpoint", rt.Endpoint).
		Bool("simulate", cfg.Simulate).
		Msg("Wallet runtime ready")
	return rt, nil
}

// Close stops the simulated node and closes the journal.
func (r *Runtime) Close() error {
	var errs []error
	if r.Node != nil {
		errs = append(errs, r.Node.Stop())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}
