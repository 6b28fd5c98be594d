package devnode

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// dispatch routes a request to the appropriate handler.
func (n *Node) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case "eth_chainId":
		return (*hexutil.Big)(uint256.NewInt(n.chainID).ToBig()), nil
	case "net_version":
		return fmt.Sprintf("%d", n.chainID), nil
	case "eth_blockNumber":
		return n.handleBlockNumber()
	case "eth_gasPrice":
		return (*hexutil.Big)(n.gasPrice.ToBig()), nil
	case "eth_getBalance":
		return n.handleGetBalance(req)
	case "eth_getTransactionCount":
		return n.handleGetTransactionCount(req)
	case "eth_estimateGas":
		return n.handleEstimateGas(req)
	case "eth_sendRawTransaction":
		return n.handleSendRawTransaction(req)
	case "eth_getTransactionReceipt":
		return n.handleGetTransactionReceipt(req)
	case "eth_getTransactionByHash":
		return n.handleGetTransactionByHash(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("the method %s does not exist/is not available", req.Method)}
	}
}

// param decodes the i-th positional parameter into out.
func param(req *Request, i int, out interface{}) *Error {
	if i >= len(req.Params) {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("missing value for required argument %d", i)}
	}
	if err := json.Unmarshal(req.Params[i], out); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid argument %d: %v", i, err)}
	}
	return nil
}

func (n *Node) handleBlockNumber() (interface{}, *Error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return hexutil.Uint64(n.head), nil
}

func (n *Node) handleGetBalance(req *Request) (interface{}, *Error) {
	var addr common.Address
	if err := param(req, 0, &addr); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return (*hexutil.Big)(n.balanceOf(addr).ToBig()), nil
}

func (n *Node) handleGetTransactionCount(req *Request) (interface{}, *Error) {
	var addr common.Address
	if err := param(req, 0, &addr); err != nil {
		return nil, err
	}
	tag := "latest"
	if len(req.Params) > 1 {
		if err := param(req, 1, &tag); err != nil {
			return nil, err
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if tag == "pending" {
		return hexutil.Uint64(n.pendingNonce(addr)), nil
	}
	return hexutil.Uint64(n.nonces[addr]), nil
}

func (n *Node) handleEstimateGas(req *Request) (interface{}, *Error) {
	var args CallArgs
	if err := param(req, 0, &args); err != nil {
		return nil, err
	}
	if args.Data != nil && len(*args.Data) > 0 {
		return nil, &Error{Code: CodeTxRejected, Message: "contract calls are not supported"}
	}

	if args.From != nil && args.Value != nil {
		value, overflow := uint256.FromBig(args.Value.ToInt())
		n.mu.Lock()
		balance := new(uint256.Int).Set(n.balanceOf(*args.From))
		n.mu.Unlock()
		if overflow || balance.Lt(value) {
			return nil, &Error{Code: CodeTxRejected, Message: "insufficient funds for transfer"}
		}
	}
	return hexutil.Uint64(params.TxGas), nil
}

func (n *Node) handleSendRawTransaction(req *Request) (interface{}, *Error) {
	var raw hexutil.Bytes
	if err := param(req, 0, &raw); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	hash, rpcErr := n.admit(raw)
	if rpcErr != nil {
		n.logger.Debug().Str("reason", rpcErr.Message).Msg("Transaction rejected")
		return nil, rpcErr
	}
	n.logger.Info().Str("hash", hash.Hex()).Msg("Transaction pooled")

	if n.autoMine {
		block := n.mine()
		n.logger.Info().Uint64("block", block).Msg("Block mined")
	}
	return hash, nil
}

func (n *Node) handleGetTransactionReceipt(req *Request) (interface{}, *Error) {
	var hash common.Hash
	if err := param(req, 0, &hash); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	rec, ok := n.txs[hash]
	if !ok || !rec.mined() {
		return (*ReceiptResult)(nil), nil
	}
	return &ReceiptResult{
		TransactionHash:   hash,
		TransactionIndex:  hexutil.Uint64(rec.index),
		BlockHash:         blockHash(rec.block),
		BlockNumber:       hexutil.Uint64(rec.block),
		From:              rec.from,
		To:                rec.tx.To(),
		GasUsed:           hexutil.Uint64(rec.gasUsed),
		CumulativeGasUsed: hexutil.Uint64(rec.gasUsed * (rec.index + 1)),
		EffectiveGasPrice: (*hexutil.Big)(rec.tx.GasPrice()),
		Status:            hexutil.Uint64(rec.status),
		Type:              hexutil.Uint64(rec.tx.Type()),
		Logs:              []interface{}{},
	}, nil
}

func (n *Node) handleGetTransactionByHash(req *Request) (interface{}, *Error) {
	var hash common.Hash
	if err := param(req, 0, &hash); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	rec, ok := n.txs[hash]
	if !ok {
		return (*TransactionResult)(nil), nil
	}
	tx := rec.tx
	res := &TransactionResult{
		Hash:     hash,
		From:     rec.from,
		To:       tx.To(),
		Value:    (*hexutil.Big)(tx.Value()),
		Nonce:    hexutil.Uint64(tx.Nonce()),
		Gas:      hexutil.Uint64(tx.Gas()),
		GasPrice: (*hexutil.Big)(tx.GasPrice()),
		Input:    tx.Data(),
		ChainID:  (*hexutil.Big)(tx.ChainId()),
	}
	if rec.mined() {
		bh := blockHash(rec.block)
		num := hexutil.Uint64(rec.block)
		idx := hexutil.Uint64(rec.index)
		res.BlockHash, res.BlockNumber, res.TransactionIndex = &bh, &num, &idx
	}
	return res, nil
}
