package client

import (
	"context"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/devnode"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

var (
	alice = ethcommon.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = ethcommon.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newTestNode(t *testing.T, opts ...devnode.Option) (*devnode.Node, *EthereumClient) {
	t.Helper()
	node := devnode.New(append([]devnode.Option{devnode.WithLogger(log.Nop())}, opts...)...)
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	return node, NewEthereumClient(srv.URL, 2*time.Second)
}

// signTransfer signs a plain transfer with a fresh key funded on node.
func signTransfer(t *testing.T, node *devnode.Node, nonce uint64) (*types.Transaction, ethcommon.Address) {
	t.Helper()
	ks, err := keystore.New(keystore.WithMnemonic(false), keystore.WithLogger(log.Nop()))
	require.NoError(t, err)
	km, err := ks.CreateKey()
	require.NoError(t, err)
	node.Fund(km.Address(), uint256.NewInt(params.Ether))

	signer, err := ks.Signer(km.Index())
	require.NoError(t, err)

	chainSigner := types.NewEIP155Signer(new(big.Int).SetUint64(node.ChainID()))
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: devnode.DefaultGasPrice.ToBig(),
		Gas:      params.TxGas,
		To:       &bob,
		Value:    big.NewInt(1000),
	})
	sig, err := signer.SignHash(chainSigner.Hash(tx))
	require.NoError(t, err)
	signed, err := tx.WithSignature(chainSigner, sig)
	require.NoError(t, err)
	return signed, km.Address()
}

func TestEthereumClient_Reads(t *testing.T) {
	node, c := newTestNode(t)
	ctx := context.Background()

	node.Fund(alice, uint256.MustFromDecimal("1500000000000000000"))

	balance, err := c.GetBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", balance.Dec())

	balance, err = c.GetBalance(ctx, bob)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(devnode.DefaultChainID), chainID.Int64())

	price, err := c.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, devnode.DefaultGasPrice.Dec(), price.Dec())

	gas, err := c.EstimateGas(ctx, CallArgs{From: alice, To: &bob})
	require.NoError(t, err)
	assert.Equal(t, params.TxGas, gas)

	head, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), head)
}

func TestEthereumClient_SendAndReceipt(t *testing.T) {
	node, c := newTestNode(t, devnode.WithAutoMine(false))
	ctx := context.Background()

	tx, from := signTransfer(t, node, 0)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	hash, err := c.SendRawTransaction(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)

	nonce, err := c.GetNonce(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	_, err = c.TransactionReceipt(ctx, hash)
	require.ErrorIs(t, err, ErrNotFound)

	pooled, err := c.TransactionByHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, pooled.Pending())
	assert.Equal(t, from, pooled.From)

	node.Mine()

	receipt, err := c.TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, uint64(1), uint64(receipt.BlockNumber))
	assert.Equal(t, params.TxGas, uint64(receipt.GasUsed))
	assert.Equal(t, from, receipt.From)

	mined, err := c.TransactionByHash(ctx, hash)
	require.NoError(t, err)
	assert.False(t, mined.Pending())

	_, err = c.TransactionByHash(ctx, ethcommon.HexToHash("0x1234"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEthereumClient_NodeError(t *testing.T) {
	node, c := newTestNode(t)
	node.FailNext("eth_getBalance", -32005, "rate limited")

	_, err := c.GetBalance(context.Background(), alice)
	require.ErrorIs(t, err, common.ErrNodeError)
	assert.NotErrorIs(t, err, common.ErrNetworkUnreachable)

	var nodeErr *common.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, -32005, nodeErr.Code)
	assert.Equal(t, "rate limited", nodeErr.Message)
	assert.Equal(t, "eth_getBalance", nodeErr.Method)

	// The failure was consumed; the next read succeeds.
	_, err = c.GetBalance(context.Background(), alice)
	require.NoError(t, err)
}

func TestEthereumClient_HTTPError(t *testing.T) {
	node, c := newTestNode(t)
	node.FailNextHTTP("eth_getTransactionCount", http.StatusBadGateway)

	_, err := c.GetNonce(context.Background(), alice)
	require.ErrorIs(t, err, common.ErrNodeError)

	var nodeErr *common.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, http.StatusBadGateway, nodeErr.Code)
}

func TestEthereumClient_UndecodableReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewEthereumClient(srv.URL, time.Second)
	_, err := c.BlockNumber(context.Background())
	require.ErrorIs(t, err, common.ErrNodeError)
	assert.False(t, IsPreSendFailure(err))
}

func TestEthereumClient_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewEthereumClient("http://"+addr, time.Second)
	_, err = c.GetBalance(context.Background(), alice)
	require.ErrorIs(t, err, common.ErrNetworkUnreachable)
	assert.NotErrorIs(t, err, common.ErrNodeError)
	assert.True(t, IsPreSendFailure(err))
}

func TestEthereumClient_ErrorsDoNotCarryAPIKey(t *testing.T) {
	const key = "SECRET-API-KEY"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewEthereumClient("http://"+addr+"/v3/"+key, time.Second)
	_, err = c.GetBalance(context.Background(), alice)
	require.ErrorIs(t, err, common.ErrNetworkUnreachable)
	assert.True(t, IsPreSendFailure(err))
	assert.NotContains(t, err.Error(), key)
	assert.Contains(t, err.Error(), "http://"+addr)

	node := devnode.New(devnode.WithLogger(log.Nop()))
	node.Delay("eth_blockNumber", 2*time.Second)
	slow := httptest.NewServer(node)
	defer slow.Close()
	c = NewEthereumClient(slow.URL+"/v3/"+key+"?token="+key, 100*time.Millisecond)
	_, err = c.BlockNumber(context.Background())
	require.ErrorIs(t, err, common.ErrTimeout)
	assert.NotContains(t, err.Error(), key)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer garbage.Close()
	c = NewEthereumClient("http://user:"+key+"@"+garbage.Listener.Addr().String()+"/v3/"+key, time.Second)
	_, err = c.BlockNumber(context.Background())
	require.ErrorIs(t, err, common.ErrNodeError)
	assert.NotContains(t, err.Error(), key)
}

func TestRedactor_Scrub(t *testing.T) {
	r := newRedactor("https://sepolia.infura.io/v3/abc123")
	assert.Equal(t,
		`rpc call eth_chainId() on https://sepolia.infura.io: Post "https://sepolia.infura.io": dial tcp: refused`,
		r.scrub(`rpc call eth_chainId() on https://sepolia.infura.io/v3/abc123: Post "https://sepolia.infura.io/v3/abc123": dial tcp: refused`))
	assert.Equal(t, "GET /<redacted> failed", r.scrub("GET /v3/abc123 failed"))

	plain := newRedactor("http://127.0.0.1:8545")
	assert.Equal(t, "dial http://127.0.0.1:8545", plain.scrub("dial http://127.0.0.1:8545"))
}

func TestEthereumClient_Timeout(t *testing.T) {
	node := devnode.New(devnode.WithLogger(log.Nop()))
	node.Delay("eth_blockNumber", 2*time.Second)
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := NewEthereumClient(srv.URL, 100*time.Millisecond)
	start := time.Now()
	_, err := c.BlockNumber(context.Background())
	require.ErrorIs(t, err, common.ErrTimeout)
	assert.NotErrorIs(t, err, common.ErrNetworkUnreachable)
	assert.False(t, IsPreSendFailure(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestEthereumClient_Canceled(t *testing.T) {
	_, c := newTestNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.BlockNumber(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrTimeout)
}

func TestRedactEndpoint(t *testing.T) {
	assert.Equal(t, "https://sepolia.infura.io", redactEndpoint("https://sepolia.infura.io/v3/secret-key"))
	assert.Equal(t, "<invalid endpoint>", redactEndpoint("::::"))
}
