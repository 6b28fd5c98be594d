package tracker

import (
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

// State is the lifecycle position of a submission.
type State string

const (
	StateBuilt        State = "built"
	StateBroadcasting State = "broadcasting"
	StatePending      State = "pending"
	StateConfirmed    State = "confirmed"
	StateRejected     State = "rejected"
	StateTimedOut     State = "timed_out"
	// StateUnknown is only reported by Lookup for hashes the endpoint does not know.
	StateUnknown State = "unknown"
)

// Terminal reports whether no further transition can happen locally.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateRejected || s == StateTimedOut
}

// Transition is one recorded state change.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// ConfirmationReceipt is produced only from an endpoint receipt with success status.
type ConfirmationReceipt struct {
	TransactionHash   ethcommon.Hash
	BlockNumber       uint64
	GasUsed           uint64
	EffectiveGasPrice *uint256.Int
	Fee               *uint256.Int
	From              ethcommon.Address
	To                ethcommon.Address
	Value             *uint256.Int
}

// Outcome is a snapshot of a submission.
type Outcome struct {
	State       State
	Hash        ethcommon.Hash // zero until the endpoint accepted the payload
	Receipt     *ConfirmationReceipt
	Err         error
	Transitions []Transition
}

// Submission tracks one signed transaction through broadcast and confirmation.
type Submission struct {
	tx *txbuilder.SignedTransaction

	mu          sync.Mutex
	state       State
	accepted    bool
	receipt     *ConfirmationReceipt
	included    *ConfirmationReceipt // set for reverted transactions too; they pay gas
	err         error
	transitions []Transition
	pendingAt   time.Time
	createdAt   time.Time
}

// Transaction returns the tracked transaction.
func (s *Submission) Transaction() *txbuilder.SignedTransaction {
	return s.tx
}

// State returns the current state.
func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Hash returns the transaction hash once the payload is on the wire.
func (s *Submission) Hash() (ethcommon.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepted {
		return ethcommon.Hash{}, false
	}
	return s.tx.Hash(), true
}

// Outcome returns a snapshot of the submission.
func (s *Submission) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcomeLocked()
}

func (s *Submission) outcomeLocked() *Outcome {
	out := &Outcome{
		State:       s.state,
		Receipt:     s.receipt,
		Err:         s.err,
		Transitions: append([]Transition(nil), s.transitions...),
	}
	if s.accepted {
		out.Hash = s.tx.Hash()
	}
	return out
}
