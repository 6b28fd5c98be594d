package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/model"
)

// balanceReadLimit bounds concurrent balance reads when listing wallets.
const balanceReadLimit = 8

// CreateWallet generates a new key and appends it to the registry.
func (s *Service) CreateWallet() (*model.CreateWalletResponse, error) {
	km, err := s.keys.CreateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return s.created(km), nil
}

// RecoverWallet re-derives a key from a mnemonic and appends it to the registry.
func (s *Service) RecoverWallet(mnemonic string) (*model.CreateWalletResponse, error) {
	km, err := s.keys.Recover(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to recover wallet: %w", err)
	}
	return s.created(km), nil
}

func (s *Service) created(km *keystore.KeyMaterial) *model.CreateWalletResponse {
	resp := &model.CreateWalletResponse{
		Index:       km.Index(),
		Address:     common.ChecksumAddress(km.Address()),
		HasMnemonic: km.HasMnemonic(),
	}
	if s.faucet != nil && s.faucetAmount != nil && !s.faucetAmount.IsZero() {
		s.faucet.Fund(km.Address(), s.faucetAmount)
		resp.Funded = common.WeiToEther(s.faucetAmount)
		s.logger.Info().Int("index", km.Index()).Str("amount_eth", resp.Funded).Msg("Wallet funded by faucet")
	}
	return resp
}

// WalletCount returns the number of wallets in the registry.
func (s *Service) WalletCount() int { return s.keys.Len() }

// ListWallets returns every wallet with its balance. Balances are read
// concurrently; a failed read is reported on its entry and does not fail the list.
func (s *Service) ListWallets(ctx context.Context) *model.WalletListResponse {
	accounts := s.keys.List()
	wallets := make([]model.WalletResponse, len(accounts))

	var g errgroup.Group
	g.SetLimit(balanceReadLimit)
	for i, acc := range accounts {
		wallets[i] = model.WalletResponse{
			Index:       acc.Index,
			Address:     common.ChecksumAddress(acc.Address),
			HasMnemonic: acc.HasMnemonic,
		}
		g.Go(func() error {
			wei, err := s.chain.GetBalance(ctx, acc.Address)
			if err != nil {
				s.logger.Warn().Err(err).Int("index", acc.Index).Msg("Balance read failed")
				wallets[i].BalanceError = err.Error()
				return nil
			}
			wallets[i].ETH = common.WeiToEther(wei)
			return nil
		})
	}
	_ = g.Wait()

	return &model.WalletListResponse{Wallets: wallets}
}

// Balance reads the balance of one wallet, valued in fiat when a price source
// is configured. A failed rate read only drops the valuation.
func (s *Service) Balance(ctx context.Context, index int) (*model.BalanceResponse, error) {
	acc, err := s.keys.Account(index)
	if err != nil {
		return nil, err
	}

	wei, err := s.chain.GetBalance(ctx, acc.Address)
	if err != nil {
		return nil, err
	}
	resp := &model.BalanceResponse{
		Index:   acc.Index,
		Address: common.ChecksumAddress(acc.Address),
		ETH:     common.WeiToEther(wei),
		Wei:     wei.Dec(),
	}

	if s.prices == nil || s.currency == "" {
		return resp, nil
	}
	rate, err := s.prices.GetRate(ctx, s.coinID, s.currency)
	if err != nil {
		s.logger.Warn().Err(err).Str("currency", s.currency).Msg("Rate unavailable, balance not valued")
		return resp, nil
	}

	// Float only for display, amounts stay exact.
	ethFloat, _ := strconv.ParseFloat(resp.ETH, 64)
	rateFloat, _ := strconv.ParseFloat(rate, 64)
	resp.Currency = s.currency
	resp.Rate = rate
	resp.Value = fmt.Sprintf("%.2f", ethFloat*rateFloat)
	return resp, nil
}

// RevealSecret returns the key material of one wallet. Callers gate it.
func (s *Service) RevealSecret(index int) (*model.SecretResponse, error) {
	secret, err := s.keys.RevealSecret(index)
	if err != nil {
		return nil, err
	}
	return &model.SecretResponse{
		Index:          secret.Index,
		Address:        common.ChecksumAddress(secret.Address),
		PrivateKey:     secret.PrivateKeyHex,
		Mnemonic:       secret.Mnemonic,
		DerivationPath: secret.DerivationPath,
	}, nil
}

// AddressQR renders the checksummed address of one wallet as a PNG QR code.
func (s *Service) AddressQR(index int) (*model.QRResponse, error) {
	acc, err := s.keys.Account(index)
	if err != nil {
		return nil, err
	}
	address := common.ChecksumAddress(acc.Address)
	qr, err := generateQRCode(address)
	if err != nil {
		return nil, err
	}
	return &model.QRResponse{Address: address, QR: qr}, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
