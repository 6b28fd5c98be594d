package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/AlexZinkM/evm-wallet/internal/storage"
)

const journalPrefix = "sub/"

// ErrNotJournaled is returned by Journal.Get for an unknown hash.
var ErrNotJournaled = errors.New("submission not in journal")

// Record is the journaled form of a submission. It never holds key material
// or the raw payload.
type Record struct {
	// Hash is empty until the endpoint accepted the payload.
	Hash        string       `json:"hash,omitempty"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	ValueWei    string       `json:"value_wei"`
	Nonce       uint64       `json:"nonce"`
	ChainID     uint64       `json:"chain_id"`
	State       State        `json:"state"`
	Error       string       `json:"error,omitempty"`
	BlockNumber uint64       `json:"block_number,omitempty"`
	FeeWei      string       `json:"fee_wei,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Transitions []Transition `json:"transitions"`
}

// Journal persists submission records so a hash can be checked out of band
// after the process that sent it stopped waiting.
type Journal struct {
	db storage.DB
}

// NewJournal creates a journal on top of db.
func NewJournal(db storage.DB) *Journal {
	return &Journal{db: db}
}

func journalKey(hash ethcommon.Hash) []byte {
	return []byte(journalPrefix + hash.Hex())
}

// Put writes rec under the transaction's content hash.
func (j *Journal) Put(localHash ethcommon.Hash, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}
	if err := j.db.Put(journalKey(localHash), data); err != nil {
		return fmt.Errorf("failed to write journal record: %w", err)
	}
	return nil
}

// Get returns the record for hash.
func (j *Journal) Get(hash ethcommon.Hash) (*Record, error) {
	data, err := j.db.Get(journalKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotJournaled
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode journal record: %w", err)
	}
	return &rec, nil
}

// List returns every record, oldest first.
func (j *Journal) List() ([]Record, error) {
	var records []Record
	err := j.db.ForEach([]byte(journalPrefix), func(_, value []byte) error {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("failed to decode journal record: %w", err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, k int) bool {
		return records[i].CreatedAt.Before(records[k].CreatedAt)
	})
	return records, nil
}
