package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/model"
	"github.com/AlexZinkM/evm-wallet/internal/tracker"
)

// ErrNoJournal is returned when listing submissions without a journal.
var ErrNoJournal = errors.New("submission journal is not configured")

// Lookup reports the state of any transaction hash, plus the local journal
// record when this process submitted it.
func (s *Service) Lookup(ctx context.Context, hash string) (*model.LookupResponse, error) {
	h, err := common.ParseHash(hash)
	if err != nil {
		return nil, err
	}

	res, err := s.tracker.Lookup(ctx, h)
	if err != nil {
		return nil, err
	}

	resp := &model.LookupResponse{
		TxHash: h.Hex(),
		State:  string(res.State),
	}
	if rc := res.Receipt; rc != nil {
		resp.BlockNumber = rc.BlockNumber
		resp.GasUsed = rc.GasUsed
		resp.FeeETH = common.WeiToEther(rc.Fee)
		resp.From = common.ChecksumAddress(rc.From)
		resp.To = common.ChecksumAddress(rc.To)
		if rc.Value != nil {
			resp.Amount = common.WeiToEther(rc.Value)
		}
	}
	if res.Record != nil {
		sub, err := toSubmission(res.Record)
		if err != nil {
			return nil, err
		}
		resp.Journal = &sub
	}
	return resp, nil
}

// Submissions lists journaled transfers matching req, newest first.
func (s *Service) Submissions(req *model.SubmissionsRequest) (*model.SubmissionsResponse, error) {
	journal := s.tracker.Journal()
	if journal == nil {
		return nil, ErrNoJournal
	}
	records, err := journal.List()
	if err != nil {
		return nil, err
	}

	result := make([]model.Submission, 0, len(records))
	totalSent := new(uint256.Int)
	totalFees := new(uint256.Int)
	for i := range records {
		rec := &records[i]
		if !matches(rec, req) {
			continue
		}

		sub, err := toSubmission(rec)
		if err != nil {
			return nil, err
		}

		// Filter by amount (integer comparison on wei strings)
		if req.MinAmount != nil {
			cmp, err := common.CompareEtherAmounts(sub.Amount, *req.MinAmount)
			if err != nil {
				return nil, fmt.Errorf("failed to compare min amount: %w", err)
			}
			if cmp < 0 {
				continue
			}
		}
		if req.MaxAmount != nil {
			cmp, err := common.CompareEtherAmounts(sub.Amount, *req.MaxAmount)
			if err != nil {
				return nil, fmt.Errorf("failed to compare max amount: %w", err)
			}
			if cmp > 0 {
				continue
			}
		}

		if rec.State == tracker.StateConfirmed {
			totalSent.Add(totalSent, uint256.MustFromDecimal(rec.ValueWei))
		}
		if rec.FeeWei != "" {
			totalFees.Add(totalFees, uint256.MustFromDecimal(rec.FeeWei))
		}
		result = append(result, sub)
	}

	// Sort by time DESC (newest first)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return &model.SubmissionsResponse{
		TotalSentETH: common.WeiToEther(totalSent),
		TotalFeesETH: common.WeiToEther(totalFees),
		Submissions:  result,
	}, nil
}

func matches(rec *tracker.Record, req *model.SubmissionsRequest) bool {
	if req.State != nil && *req.State != string(rec.State) {
		return false
	}
	if req.TxHash != nil && !strings.EqualFold(*req.TxHash, rec.Hash) {
		return false
	}
	if req.Address != nil && !strings.EqualFold(*req.Address, rec.From) && !strings.EqualFold(*req.Address, rec.To) {
		return false
	}
	if req.From != nil && rec.CreatedAt.Before(*req.From) {
		return false
	}
	if req.To != nil && rec.CreatedAt.After(*req.To) {
		return false
	}
	return true
}

func toSubmission(rec *tracker.Record) (model.Submission, error) {
	value, err := uint256.FromDecimal(rec.ValueWei)
	if err != nil {
		return model.Submission{}, fmt.Errorf("corrupt journal record %s: %w", rec.Hash, err)
	}
	sub := model.Submission{
		TxHash:      rec.Hash,
		From:        rec.From,
		To:          rec.To,
		Amount:      common.WeiToEther(value),
		Nonce:       rec.Nonce,
		ChainID:     rec.ChainID,
		State:       string(rec.State),
		Error:       rec.Error,
		BlockNumber: rec.BlockNumber,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.FeeWei != "" {
		fee, err := uint256.FromDecimal(rec.FeeWei)
		if err != nil {
			return model.Submission{}, fmt.Errorf("corrupt journal record %s: %w", rec.Hash, err)
		}
		sub.FeeETH = common.WeiToEther(fee)
	}
	for _, tr := range rec.Transitions {
		sub.Transitions = append(sub.Transitions, model.Transition{State: string(tr.State), At: tr.At, Error: tr.Error})
	}
	return sub, nil
}
