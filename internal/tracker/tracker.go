// Package tracker broadcasts signed transactions and follows them until they
// are confirmed, rejected or the confirmation budget runs out.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/rs/zerolog"

	"github.com/AlexZinkM/evm-wallet/internal/client"
	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/log"
	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

// ChainClient is the part of the endpoint the tracker talks to.
type ChainClient interface {
	SendRawTransaction(ctx context.Context, raw []byte) (ethcommon.Hash, error)
	TransactionReceipt(ctx context.Context, hash ethcommon.Hash) (*client.Receipt, error)
	TransactionByHash(ctx context.Context, hash ethcommon.Hash) (*client.Transaction, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Config bounds broadcast and confirmation.
type Config struct {
	// ChainID is checked against every payload before broadcast. Zero skips the check.
	ChainID        uint64
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	// Confirmations is the block depth a receipt needs, counting its own block.
	Confirmations uint64
	// BroadcastRetries applies only to failures where the request never left the host.
	BroadcastRetries int
	RetryBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 4 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 3 * time.Minute
	}
	if c.Confirmations == 0 {
		c.Confirmations = 1
	}
	if c.BroadcastRetries < 0 {
		c.BroadcastRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return c
}

// Tracker owns submissions. It is safe for concurrent use.
type Tracker struct {
	client  ChainClient
	cfg     Config
	clock   clock.Clock
	journal *Journal
	logger  zerolog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithJournal records every transition in j.
func WithJournal(j *Journal) Option {
	return func(t *Tracker) { t.journal = j }
}

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a Tracker.
func New(c ChainClient, cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		client: c,
		cfg:    cfg.withDefaults(),
		clock:  clock.NewDefaultClock(),
		logger: log.Tracker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Journal returns the journal, or nil when none is configured.
func (t *Tracker) Journal() *Journal {
	return t.journal
}

// Submit validates tx locally and broadcasts it. The returned submission is
// Pending on success and Rejected otherwise; it is never nil.
func (t *Tracker) Submit(ctx context.Context, tx *txbuilder.SignedTransaction) (*Submission, error) {
	now := t.clock.Now()
	sub := &Submission{tx: tx, createdAt: now}
	t.transition(sub, StateBuilt, nil)

	if err := t.validate(tx); err != nil {
		t.transition(sub, StateRejected, fmt.Errorf("%w: %w", common.ErrRejected, err))
		return sub, sub.Outcome().Err
	}
	if err := ctx.Err(); err != nil {
		t.transition(sub, StateRejected, fmt.Errorf("%w: %w", common.ErrRejected, err))
		return sub, sub.Outcome().Err
	}

	t.transition(sub, StateBroadcasting, nil)
	localHash := tx.Hash()
	logger := t.logger.With().Str("hash", localHash.Hex()).Logger()

	var err error
	for attempt := 0; ; attempt++ {
		var nodeHash ethcommon.Hash
		nodeHash, err = t.client.SendRawTransaction(ctx, tx.Raw())
		if err == nil {
			if nodeHash != localHash {
				logger.Warn().Str("node_hash", nodeHash.Hex()).Msg("Endpoint reported a different hash, using local hash")
			}
			break
		}
		if !client.IsPreSendFailure(err) || attempt >= t.cfg.BroadcastRetries {
			break
		}

		logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Broadcast did not reach the endpoint, retrying")
		select {
		case <-ctx.Done():
			err = fmt.Errorf("%w (gave up: %w)", err, ctx.Err())
		case <-t.clock.TickAfter(t.cfg.RetryBackoff):
			continue
		}
		break
	}

	switch {
	case err == nil:
		logger.Info().Msg("Transaction broadcast")
	case isAlreadyKnown(err):
		logger.Info().Msg("Transaction already known to the endpoint")
	case errors.Is(err, common.ErrTimeout), errors.Is(err, context.Canceled) && !client.IsPreSendFailure(err):
		// The payload may have been delivered. Tracking continues by hash.
		logger.Warn().Err(err).Msg("Broadcast outcome unknown, tracking by hash")
	default:
		logger.Warn().Err(err).Msg("Broadcast rejected")
		t.transition(sub, StateRejected, fmt.Errorf("%w: %w", common.ErrRejected, err))
		return sub, sub.Outcome().Err
	}

	sub.mu.Lock()
	sub.accepted = true
	sub.pendingAt = t.clock.Now()
	sub.mu.Unlock()
	t.transition(sub, StatePending, nil)
	return sub, nil
}

// Wait polls for the receipt of a pending submission until it reaches a
// terminal state, the confirmation budget runs out or ctx is done. On ctx
// cancellation the submission stays Pending and ctx.Err() is returned.
func (t *Tracker) Wait(ctx context.Context, sub *Submission) (*Outcome, error) {
	sub.mu.Lock()
	state := sub.state
	deadline := sub.pendingAt.Add(t.cfg.ConfirmTimeout)
	sub.mu.Unlock()

	if state.Terminal() {
		out := sub.Outcome()
		return out, out.Err
	}
	if state != StatePending {
		return sub.Outcome(), fmt.Errorf("submission in state %s cannot be awaited", state)
	}

	hash := sub.tx.Hash()
	logger := t.logger.With().Str("hash", hash.Hex()).Logger()

	for {
		if done := t.poll(ctx, sub, logger); done {
			out := sub.Outcome()
			return out, out.Err
		}

		now := t.clock.Now()
		if !now.Before(deadline) {
			logger.Warn().Dur("budget", t.cfg.ConfirmTimeout).Msg("Confirmation budget exhausted")
			t.transition(sub, StateTimedOut, fmt.Errorf("%w after %s: transaction %s may still be included",
				common.ErrTimedOut, t.cfg.ConfirmTimeout, hash.Hex()))
			out := sub.Outcome()
			return out, out.Err
		}

		wait := t.cfg.PollInterval
		if left := deadline.Sub(now); left < wait {
			wait = left
		}
		select {
		case <-ctx.Done():
			return sub.Outcome(), ctx.Err()
		case <-t.clock.TickAfter(wait):
		}
	}
}

// SubmitAndWait is Submit followed by Wait.
func (t *Tracker) SubmitAndWait(ctx context.Context, tx *txbuilder.SignedTransaction) (*Outcome, error) {
	sub, err := t.Submit(ctx, tx)
	if err != nil {
		return sub.Outcome(), err
	}
	return t.Wait(ctx, sub)
}

// poll checks the receipt once and applies a terminal transition if one is due.
// Endpoint errors are logged and polling continues.
func (t *Tracker) poll(ctx context.Context, sub *Submission, logger zerolog.Logger) bool {
	hash := sub.tx.Hash()
	receipt, err := t.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, client.ErrNotFound) {
		return false
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug().Err(err).Msg("Receipt poll failed")
		}
		return false
	}

	u := sub.tx.Unsigned()
	rc := toConfirmation(receipt, u.Params.GasPrice, u.Value)

	if !receipt.Succeeded() {
		sub.mu.Lock()
		sub.included = rc
		sub.mu.Unlock()
		logger.Warn().Uint64("block", rc.BlockNumber).Str("fee_eth", common.WeiToEther(rc.Fee)).Msg("Transaction reverted")
		t.transition(sub, StateRejected, fmt.Errorf("%w: %w in block %d", common.ErrRejected, common.ErrReverted, uint64(receipt.BlockNumber)))
		return true
	}

	if t.cfg.Confirmations > 1 {
		head, err := t.client.BlockNumber(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("Block number poll failed")
			return false
		}
		if depth(head, uint64(receipt.BlockNumber)) < t.cfg.Confirmations {
			return false
		}
	}

	sub.mu.Lock()
	sub.receipt = rc
	sub.included = rc
	sub.mu.Unlock()

	logger.Info().
		Uint64("block", rc.BlockNumber).
		Uint64("gas_used", rc.GasUsed).
		Str("fee_eth", common.WeiToEther(rc.Fee)).
		Msg("Transaction confirmed")
	t.transition(sub, StateConfirmed, nil)
	return true
}

// LookupResult is the endpoint's view of a hash plus the journaled record, if any.
type LookupResult struct {
	Hash    ethcommon.Hash
	State   State
	Receipt *ConfirmationReceipt
	Record  *Record
}

// Lookup reports the state of any transaction hash. A hash neither pooled
// nor included on the endpoint is StateUnknown.
func (t *Tracker) Lookup(ctx context.Context, hash ethcommon.Hash) (*LookupResult, error) {
	res := &LookupResult{Hash: hash, State: StateUnknown}
	if t.journal != nil {
		rec, err := t.journal.Get(hash)
		if err != nil && !errors.Is(err, ErrNotJournaled) {
			t.logger.Warn().Err(err).Str("hash", hash.Hex()).Msg("Journal read failed")
		}
		res.Record = rec
	}

	receipt, err := t.client.TransactionReceipt(ctx, hash)
	switch {
	case err == nil:
		if !receipt.Succeeded() {
			res.State = StateRejected
			return res, nil
		}
		var gasPrice, value *uint256.Int
		if tx, err := t.client.TransactionByHash(ctx, hash); err == nil {
			if tx.GasPrice != nil {
				gasPrice, _ = uint256.FromBig(tx.GasPrice.ToInt())
			}
			if tx.Value != nil {
				value, _ = uint256.FromBig(tx.Value.ToInt())
			}
		}
		res.Receipt = toConfirmation(receipt, gasPrice, value)
		res.State = StateConfirmed
		if t.cfg.Confirmations > 1 {
			head, err := t.client.BlockNumber(ctx)
			if err != nil {
				return nil, err
			}
			if depth(head, res.Receipt.BlockNumber) < t.cfg.Confirmations {
				res.State = StatePending
			}
		}
		return res, nil
	case !errors.Is(err, client.ErrNotFound):
		return nil, err
	}

	if _, err := t.client.TransactionByHash(ctx, hash); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return res, nil
		}
		return nil, err
	}
	res.State = StatePending
	return res, nil
}

func (t *Tracker) validate(tx *txbuilder.SignedTransaction) error {
	if t.cfg.ChainID == 0 {
		return nil
	}
	decoded, err := txbuilder.Decode(tx.Raw(), t.cfg.ChainID)
	if err != nil {
		return err
	}
	if decoded.Hash() != tx.Hash() {
		return errors.New("encoding does not match transaction hash")
	}
	return nil
}

// transition moves sub to state and journals the change.
func (t *Tracker) transition(sub *Submission, state State, err error) {
	sub.mu.Lock()
	sub.state = state
	sub.err = err
	tr := Transition{State: state, At: t.clock.Now()}
	if err != nil {
		tr.Error = err.Error()
	}
	sub.transitions = append(sub.transitions, tr)
	rec := sub.recordLocked()
	sub.mu.Unlock()

	if t.journal == nil {
		return
	}
	if err := t.journal.Put(sub.tx.Hash(), rec); err != nil {
		t.logger.Error().Err(err).Str("state", string(state)).Msg("Failed to journal transition")
	}
}

func (s *Submission) recordLocked() *Record {
	u := s.tx.Unsigned()
	rec := &Record{
		From:        u.From.Hex(),
		To:          u.To.Hex(),
		ValueWei:    u.Value.Dec(),
		Nonce:       u.Nonce,
		ChainID:     u.Params.ChainID,
		State:       s.state,
		CreatedAt:   s.createdAt,
		Transitions: append([]Transition(nil), s.transitions...),
	}
	if len(s.transitions) > 0 {
		rec.UpdatedAt = s.transitions[len(s.transitions)-1].At
	}
	if s.accepted {
		rec.Hash = s.tx.Hash().Hex()
	}
	if s.err != nil {
		rec.Error = s.err.Error()
	}
	if s.included != nil {
		rec.BlockNumber = s.included.BlockNumber
		rec.FeeWei = s.included.Fee.Dec()
	}
	return rec
}

func toConfirmation(r *client.Receipt, fallbackGasPrice, value *uint256.Int) *ConfirmationReceipt {
	price := fallbackGasPrice
	if r.EffectiveGasPrice != nil {
		if p, overflow := uint256.FromBig(r.EffectiveGasPrice.ToInt()); !overflow {
			price = p
		}
	}
	if price == nil {
		price = new(uint256.Int)
	}

	rc := &ConfirmationReceipt{
		TransactionHash:   r.TxHash,
		BlockNumber:       uint64(r.BlockNumber),
		GasUsed:           uint64(r.GasUsed),
		EffectiveGasPrice: price,
		Fee:               new(uint256.Int).Mul(uint256.NewInt(uint64(r.GasUsed)), price),
		From:              r.From,
		Value:             value,
	}
	if r.To != nil {
		rc.To = *r.To
	}
	return rc
}

func depth(head, block uint64) uint64 {
	if head < block {
		return 0
	}
	return head - block + 1
}

func isAlreadyKnown(err error) bool {
	var nodeErr *common.NodeError
	if !errors.As(err, &nodeErr) {
		return false
	}
	msg := strings.ToLower(nodeErr.Message)
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}
