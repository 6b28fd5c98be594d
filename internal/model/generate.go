package model

// CreateWalletResponse represents response for POST /wallets and POST /wallets/recover
type CreateWalletResponse struct {
	Index       int    `json:"index"`
	Address     string `json:"address"`
	HasMnemonic bool   `json:"hasMnemonic"`
	// Funded is the faucet amount credited by the simulated node, in ETH
	Funded string `json:"funded,omitempty"`
}

// RecoverRequest represents request for POST /wallets/recover
type RecoverRequest struct {
	Mnemonic string `json:"mnemonic"`
}
