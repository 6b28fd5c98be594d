package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/log"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the endpoint answers null for a receipt or transaction.
var ErrNotFound = errors.New("not found")

// EthereumClient is a client for working with an Ethereum JSON-RPC endpoint.
// Every call is bounded by the request timeout; nothing is retried here.
type EthereumClient struct {
	rpcClient *rpc.Client
	endpoint  string // redacted, for logs
	redactor  *redactor
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewEthereumClient creates a client for the given endpoint URL.
func NewEthereumClient(endpoint string, timeout time.Duration) *EthereumClient {
	return &EthereumClient{
		rpcClient: rpc.New(endpoint),
		endpoint:  redactEndpoint(endpoint),
		redactor:  newRedactor(endpoint),
		timeout:   timeout,
		logger:    log.RPC,
	}
}

// Endpoint returns the endpoint URL with credentials and path removed.
func (c *EthereumClient) Endpoint() string {
	return c.endpoint
}

// CallArgs is the transaction call object of eth_estimateGas.
type CallArgs struct {
	From  ethcommon.Address  `json:"from"`
	To    *ethcommon.Address `json:"to,omitempty"`
	Value *hexutil.Big       `json:"value,omitempty"`
}

// Receipt is the subset of a transaction receipt the wallet consumes.
type Receipt struct {
	TxHash            ethcommon.Hash     `json:"transactionHash"`
	BlockHash         ethcommon.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64     `json:"blockNumber"`
	From              ethcommon.Address  `json:"from"`
	To                *ethcommon.Address `json:"to"`
	GasUsed           hexutil.Uint64     `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big       `json:"effectiveGasPrice"`
	Status            hexutil.Uint64     `json:"status"`
}

// Succeeded reports whether the receipt carries a success status.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// Transaction is the subset of eth_getTransactionByHash the wallet consumes.
// BlockNumber is nil while the transaction is pooled.
type Transaction struct {
	Hash        ethcommon.Hash     `json:"hash"`
	From        ethcommon.Address  `json:"from"`
	To          *ethcommon.Address `json:"to"`
	Value       *hexutil.Big       `json:"value"`
	Nonce       hexutil.Uint64     `json:"nonce"`
	Gas         hexutil.Uint64     `json:"gas"`
	GasPrice    *hexutil.Big       `json:"gasPrice"`
	BlockNumber *hexutil.Uint64    `json:"blockNumber"`
}

// Pending reports whether the transaction is known but not yet included.
func (t *Transaction) Pending() bool {
	return t.BlockNumber == nil
}

// GetBalance gets the balance in wei at the latest block.
func (c *EthereumClient) GetBalance(ctx context.Context, address ethcommon.Address) (*uint256.Int, error) {
	var out hexutil.Big
	if err := c.call(ctx, &out, "eth_getBalance", address, "latest"); err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", address.Hex(), err)
	}
	return toUint256("eth_getBalance", &out)
}

// GetNonce gets the next nonce for address, counting pooled transactions.
func (c *EthereumClient) GetNonce(ctx context.Context, address ethcommon.Address) (uint64, error) {
	var out hexutil.Uint64
	if err := c.call(ctx, &out, "eth_getTransactionCount", address, "pending"); err != nil {
		return 0, fmt.Errorf("failed to get nonce of %s: %w", address.Hex(), err)
	}
	return uint64(out), nil
}

// ChainID gets the chain id served by the endpoint.
func (c *EthereumClient) ChainID(ctx context.Context) (*big.Int, error) {
	var out hexutil.Big
	if err := c.call(ctx, &out, "eth_chainId"); err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return out.ToInt(), nil
}

// GasPrice gets the gas price suggested by the endpoint.
func (c *EthereumClient) GasPrice(ctx context.Context) (*uint256.Int, error) {
	var out hexutil.Big
	if err := c.call(ctx, &out, "eth_gasPrice"); err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return toUint256("eth_gasPrice", &out)
}

// EstimateGas asks the endpoint for the gas limit of a call.
func (c *EthereumClient) EstimateGas(ctx context.Context, args CallArgs) (uint64, error) {
	var out hexutil.Uint64
	if err := c.call(ctx, &out, "eth_estimateGas", args); err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return uint64(out), nil
}

// BlockNumber gets the number of the latest block.
func (c *EthereumClient) BlockNumber(ctx context.Context) (uint64, error) {
	var out hexutil.Uint64
	if err := c.call(ctx, &out, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	return uint64(out), nil
}

// SendRawTransaction submits a signed, canonically encoded transaction.
func (c *EthereumClient) SendRawTransaction(ctx context.Context, raw []byte) (ethcommon.Hash, error) {
	var out ethcommon.Hash
	if err := c.call(ctx, &out, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return out, nil
}

// TransactionReceipt gets the receipt of an included transaction.
// Returns ErrNotFound while the transaction is not included.
func (c *EthereumClient) TransactionReceipt(ctx context.Context, hash ethcommon.Hash) (*Receipt, error) {
	var out *Receipt
	if err := c.call(ctx, &out, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("failed to get receipt of %s: %w", hash.Hex(), err)
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// TransactionByHash gets a pooled or included transaction.
// Returns ErrNotFound when the endpoint does not know the hash.
func (c *EthereumClient) TransactionByHash(ctx context.Context, hash ethcommon.Hash) (*Transaction, error) {
	var out *Transaction
	if err := c.call(ctx, &out, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (c *EthereumClient) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if params == nil {
		params = []interface{}{}
	}

	start := time.Now()
	err := c.rpcClient.RPCCallForInto(ctx, out, method, params)
	if err != nil {
		err = classify(method, err, c.redactor)
		c.logger.Debug().
			Str("method", method).
			Str("endpoint", c.endpoint).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("RPC call failed")
		return err
	}

	c.logger.Trace().
		Str("method", method).
		Dur("elapsed", time.Since(start)).
		Msg("RPC call")
	return nil
}

func toUint256(method string, v *hexutil.Big) (*uint256.Int, error) {
	n, overflow := uint256.FromBig(v.ToInt())
	if overflow || v.ToInt().Sign() < 0 {
		return nil, &common.NodeError{Method: method, Message: fmt.Sprintf("value %s out of 256-bit range", v.String())}
	}
	return n, nil
}

func redactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "<invalid endpoint>"
	}
	return u.Scheme + "://" + u.Host
}
