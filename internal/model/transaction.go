package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AlexZinkM/evm-wallet/internal/common"
)

// Submission is one journaled transfer
type Submission struct {
	TxHash      string       `json:"txHash,omitempty"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Amount      string       `json:"amount"`
	Nonce       uint64       `json:"nonce"`
	ChainID     uint64       `json:"chainId"`
	State       string       `json:"state"`
	Error       string       `json:"error,omitempty"`
	BlockNumber uint64       `json:"blockNumber,omitempty"`
	FeeETH      string       `json:"feeETH,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// SubmissionsResponse represents response for GET /transactions
type SubmissionsResponse struct {
	TotalSentETH string       `json:"totalSentETH"` // confirmed transfers only
	TotalFeesETH string       `json:"totalFeesETH"` // gas paid by every included transfer, reverted ones too
	Submissions  []Submission `json:"submissions"`
}

var submissionStates = []string{"built", "broadcasting", "pending", "confirmed", "rejected", "timed_out"}

// SubmissionsRequest represents request parameters for GET /transactions
type SubmissionsRequest struct {
	State     *string    `form:"state"`
	Address   *string    `form:"address"` // sender or recipient
	TxHash    *string    `form:"txHash"`
	From      *time.Time `form:"from"`
	To        *time.Time `form:"to"`
	MinAmount *string    `form:"minAmount"`
	MaxAmount *string    `form:"maxAmount"`
}

// Validate validates SubmissionsRequest filter parameters.
func (r *SubmissionsRequest) Validate() error {
	if r.State != nil && !slices.Contains(submissionStates, *r.State) {
		return fmt.Errorf("state must be one of %s", strings.Join(submissionStates, ", "))
	}
	if r.Address != nil {
		if _, err := common.ParseAddress(*r.Address); err != nil {
			return err
		}
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return errors.New("to date must be after or equal to from date")
	}
	if r.MinAmount != nil && r.MaxAmount != nil {
		cmp, err := common.CompareEtherAmounts(*r.MinAmount, *r.MaxAmount)
		if err != nil {
			return err
		}
		if cmp == 1 {
			return errors.New("minAmount must be less than or equal to maxAmount")
		}
	}
	return nil
}
