package model

// WalletResponse is one entry of GET /wallets
type WalletResponse struct {
	Index       int    `json:"index"`
	Address     string `json:"address"`
	HasMnemonic bool   `json:"hasMnemonic"`
	ETH         string `json:"eth,omitempty"`
	// BalanceError is set instead of ETH when the balance read failed
	BalanceError string `json:"balanceError,omitempty"`
}

// WalletListResponse represents response for GET /wallets
type WalletListResponse struct {
	Wallets []WalletResponse `json:"wallets"`
}

// SecretResponse represents response for POST /wallets/{index}/reveal.
// It is the only DTO that carries key material.
type SecretResponse struct {
	Index          int    `json:"index"`
	Address        string `json:"address"`
	PrivateKey     string `json:"privateKey"`
	Mnemonic       string `json:"mnemonic,omitempty"`
	DerivationPath string `json:"derivationPath,omitempty"`
}

// QRResponse represents response for GET /wallets/{index}/qr
type QRResponse struct {
	Address string `json:"address"`
	// QR is a base64 encoded PNG of the checksummed address
	QR string `json:"QR"`
}
