package devnode

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// txRecord is a transaction known to the node, pooled or mined.
type txRecord struct {
	tx    *types.Transaction
	from  common.Address
	block uint64 // 0 while pooled
	index uint64
	// status and gasUsed are set when mined
	status  uint64
	gasUsed uint64
}

func (r *txRecord) mined() bool {
	return r.block != 0
}

// pendingNonce is the next nonce for addr counting pooled transactions.
// Caller holds n.mu.
func (n *Node) pendingNonce(addr common.Address) uint64 {
	nonce := n.nonces[addr]
	for _, rec := range n.pool {
		if rec.from == addr {
			nonce++
		}
	}
	return nonce
}

// reserved is the value plus maximum fee of every pooled transaction from addr.
// Caller holds n.mu.
func (n *Node) reserved(addr common.Address) *uint256.Int {
	total := new(uint256.Int)
	for _, rec := range n.pool {
		if rec.from == addr {
			total.Add(total, txCost(rec.tx))
		}
	}
	return total
}

func (n *Node) balanceOf(addr common.Address) *uint256.Int {
	if b, ok := n.balances[addr]; ok {
		return b
	}
	return new(uint256.Int)
}

// admit validates a raw transaction against the current state and pools it.
// Caller holds n.mu.
func (n *Node) admit(raw []byte) (common.Hash, *Error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("rlp: %v", err)}
	}

	hash := tx.Hash()
	if _, known := n.txs[hash]; known {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: "already known"}
	}
	if !tx.Protected() {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: "only replay-protected (EIP-155) transactions allowed over RPC"}
	}
	if tx.ChainId().Cmp(new(big.Int).SetUint64(n.chainID)) != 0 {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("invalid chain id: have %s want %d", tx.ChainId(), n.chainID)}
	}

	from, err := types.Sender(n.signer, tx)
	if err != nil {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("invalid sender: %v", err)}
	}

	switch expected := n.pendingNonce(from); {
	case tx.Nonce() < expected:
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("nonce too low: next nonce %d, tx nonce %d", expected, tx.Nonce())}
	case tx.Nonce() > expected:
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("nonce too high: next nonce %d, tx nonce %d", expected, tx.Nonce())}
	}

	if tx.Gas() < params.TxGas {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: fmt.Sprintf("intrinsic gas too low: have %d, want %d", tx.Gas(), params.TxGas)}
	}
	if tx.GasPrice().Cmp(n.gasPrice.ToBig()) < 0 {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: "transaction underpriced"}
	}

	available := new(uint256.Int)
	if balance := n.balanceOf(from); balance.Cmp(n.reserved(from)) > 0 {
		available.Sub(balance, n.reserved(from))
	}
	if available.Lt(txCost(tx)) {
		return common.Hash{}, &Error{Code: CodeTxRejected, Message: "insufficient funds for gas * price + value"}
	}

	rec := &txRecord{tx: tx, from: from}
	n.pool = append(n.pool, rec)
	n.txs[hash] = rec
	return hash, nil
}

// mine seals one block holding every pooled transaction.
// Caller holds n.mu.
func (n *Node) mine() uint64 {
	n.head++
	for i, rec := range n.pool {
		tx := rec.tx
		rec.block = n.head
		rec.index = uint64(i)
		rec.gasUsed = params.TxGas

		fee := new(uint256.Int).Mul(uint256.NewInt(rec.gasUsed), uint256.MustFromBig(tx.GasPrice()))
		from := new(uint256.Int).Set(n.balanceOf(rec.from))
		from.Sub(from, fee)

		value := uint256.MustFromBig(tx.Value())
		to := tx.To()
		rec.status = types.ReceiptStatusSuccessful
		if to != nil && n.reverting[*to] {
			rec.status = types.ReceiptStatusFailed
		} else {
			from.Sub(from, value)
		}
		n.balances[rec.from] = from

		if rec.status == types.ReceiptStatusSuccessful && to != nil {
			dst := new(uint256.Int).Set(n.balanceOf(*to))
			n.balances[*to] = dst.Add(dst, value)
		}
		n.nonces[rec.from]++
	}
	n.pool = nil
	return n.head
}

func txCost(tx *types.Transaction) *uint256.Int {
	gas := new(uint256.Int).Mul(uint256.NewInt(tx.Gas()), uint256.MustFromBig(tx.GasPrice()))
	return gas.Add(gas, uint256.MustFromBig(tx.Value()))
}

func blockHash(number uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], number)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("devnode-block"))
	h.Write(buf[:])
	return common.BytesToHash(h.Sum(nil))
}
