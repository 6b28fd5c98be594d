package wallet

import (
	"context"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/model"
	"github.com/AlexZinkM/evm-wallet/internal/tracker"
	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

// ErrNotAwaited marks a transfer that was broadcast but whose caller stopped
// waiting before a terminal state. The transaction is still pending.
var ErrNotAwaited = errors.New("stopped waiting for confirmation")

// Transfer sends amount ETH from wallet fromIndex to recipient and waits for
// the outcome. The response is non-nil whenever a transaction was built:
// a Rejected or TimedOut transfer returns both the response and the error.
func (s *Service) Transfer(ctx context.Context, fromIndex int, recipient, amount string) (*model.TransferResponse, error) {
	signer, err := s.keys.Signer(fromIndex)
	if err != nil {
		return nil, err
	}

	unlock := s.senders.lock(signer.Address())
	signed, err := s.builder.Build(ctx, signer, recipient, amount)
	if err != nil {
		unlock()
		return nil, err
	}
	sub, err := s.tracker.Submit(ctx, signed)
	// Once pooled, the endpoint's pending nonce accounts for this transaction.
	unlock()
	if err != nil {
		return transferResponse(signed, sub.Outcome()), err
	}

	out, err := s.tracker.Wait(ctx, sub)
	resp := transferResponse(signed, out)
	if err != nil && out.State == tracker.StatePending {
		return resp, fmt.Errorf("%w: transaction %s: %w", ErrNotAwaited, resp.TxHash, err)
	}
	return resp, err
}

// TransferBetween sends amount ETH from one registry wallet to another.
func (s *Service) TransferBetween(ctx context.Context, fromIndex, toIndex int, amount string) (*model.TransferResponse, error) {
	to, err := s.keys.Account(toIndex)
	if err != nil {
		return nil, err
	}
	return s.Transfer(ctx, fromIndex, common.ChecksumAddress(to.Address), amount)
}

func transferResponse(signed *txbuilder.SignedTransaction, out *tracker.Outcome) *model.TransferResponse {
	u := signed.Unsigned()
	resp := &model.TransferResponse{
		State:       string(out.State),
		From:        common.ChecksumAddress(u.From),
		To:          common.ChecksumAddress(u.To),
		Amount:      common.WeiToEther(u.Value),
		Nonce:       u.Nonce,
		Transitions: transitions(out.Transitions),
	}
	if out.Hash != (ethcommon.Hash{}) {
		resp.TxHash = out.Hash.Hex()
	}
	if out.Receipt != nil {
		resp.BlockNumber = out.Receipt.BlockNumber
		resp.GasUsed = out.Receipt.GasUsed
		resp.FeeETH = common.WeiToEther(out.Receipt.Fee)
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

func transitions(in []tracker.Transition) []model.Transition {
	out := make([]model.Transition, 0, len(in))
	for _, tr := range in {
		out = append(out, model.Transition{State: string(tr.State), At: tr.At, Error: tr.Error})
	}
	return out
}
