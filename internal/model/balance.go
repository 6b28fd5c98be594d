package model

// BalanceResponse represents response for GET /wallets/{index}/balance
type BalanceResponse struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	ETH     string `json:"eth"`
	Wei     string `json:"wei"`
	// Fiat valuation, present only when PRICE_CURRENCY is set and the rate was available
	Currency string `json:"currency,omitempty"`
	Rate     string `json:"rate,omitempty"`
	Value    string `json:"value,omitempty"`
}
