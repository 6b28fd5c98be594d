package model

import "time"

// TransferRequest represents request for POST /transfers.
// Exactly one of ToAddress and ToIndex must be set.
type TransferRequest struct {
	FromIndex int    `json:"fromIndex"`
	ToAddress string `json:"toAddress,omitempty"`
	ToIndex   *int   `json:"toIndex,omitempty"`
	Amount    string `json:"amount"`
}

// Transition is one recorded state change of a submission
type Transition struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// TransferResponse represents response for POST /transfers
type TransferResponse struct {
	State string `json:"state"`
	// TxHash is empty when the endpoint never accepted the transaction
	TxHash      string       `json:"txHash,omitempty"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Amount      string       `json:"amount"`
	Nonce       uint64       `json:"nonce"`
	BlockNumber uint64       `json:"blockNumber,omitempty"`
	GasUsed     uint64       `json:"gasUsed,omitempty"`
	FeeETH      string       `json:"feeETH,omitempty"`
	Error       string       `json:"error,omitempty"`
	Transitions []Transition `json:"transitions"`
}

// LookupResponse represents response for GET /transactions/{hash}
type LookupResponse struct {
	TxHash      string `json:"txHash"`
	State       string `json:"state"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
	FeeETH      string `json:"feeETH,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Amount      string `json:"amount,omitempty"`
	// Journal is the local record, when this process submitted the transaction
	Journal *Submission `json:"journal,omitempty"`
}
