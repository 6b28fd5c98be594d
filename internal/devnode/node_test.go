package devnode_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/evm-wallet/internal/devnode"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

var recipient = ethcommon.HexToAddress("0x0000000000000000000000000000000000000b0b")

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *devnode.Error  `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method string, params ...interface{}) rpcReply {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply rpcReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	return reply
}

type account struct {
	signer keystore.Signer
}

func newAccount(t *testing.T, node *devnode.Node, fund *uint256.Int) account {
	t.Helper()
	ks, err := keystore.New(keystore.WithMnemonic(false), keystore.WithLogger(log.Nop()))
	require.NoError(t, err)
	km, err := ks.CreateKey()
	require.NoError(t, err)
	if fund != nil {
		node.Fund(km.Address(), fund)
	}
	s, err := ks.Signer(km.Index())
	require.NoError(t, err)
	return account{signer: s}
}

func (a account) transfer(t *testing.T, chainID uint64, nonce uint64, value *big.Int) []byte {
	t.Helper()
	chainSigner := types.NewEIP155Signer(new(big.Int).SetUint64(chainID))
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: devnode.DefaultGasPrice.ToBig(),
		Gas:      params.TxGas,
		To:       &recipient,
		Value:    value,
	})
	sig, err := a.signer.SignHash(chainSigner.Hash(tx))
	require.NoError(t, err)
	signed, err := tx.WithSignature(chainSigner, sig)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func newServer(t *testing.T, opts ...devnode.Option) (*devnode.Node, *httptest.Server) {
	t.Helper()
	node := devnode.New(append([]devnode.Option{devnode.WithLogger(log.Nop())}, opts...)...)
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	return node, srv
}

func TestNode_TransferIsMinedAndCharged(t *testing.T) {
	node, srv := newServer(t)
	sender := newAccount(t, node, uint256.NewInt(params.Ether))

	reply := call(t, srv, "eth_sendRawTransaction", hexutil.Bytes(sender.transfer(t, node.ChainID(), 0, big.NewInt(300))))
	require.Nil(t, reply.Error)

	var hash ethcommon.Hash
	require.NoError(t, json.Unmarshal(reply.Result, &hash))

	fee := new(uint256.Int).Mul(uint256.NewInt(params.TxGas), devnode.DefaultGasPrice)
	want := new(uint256.Int).Sub(uint256.NewInt(params.Ether), fee)
	want.Sub(want, uint256.NewInt(300))
	assert.Equal(t, want.Dec(), node.Balance(sender.signer.Address()).Dec())
	assert.Equal(t, "300", node.Balance(recipient).Dec())
	assert.Equal(t, uint64(1), node.Head())

	var receipt devnode.ReceiptResult
	reply = call(t, srv, "eth_getTransactionReceipt", hash)
	require.NoError(t, json.Unmarshal(reply.Result, &receipt))
	assert.Equal(t, uint64(types.ReceiptStatusSuccessful), uint64(receipt.Status))
	assert.Equal(t, sender.signer.Address(), receipt.From)

	// Same payload again.
	reply = call(t, srv, "eth_sendRawTransaction", hexutil.Bytes(sender.transfer(t, node.ChainID(), 0, big.NewInt(300))))
	require.NotNil(t, reply.Error)
	assert.Equal(t, "already known", reply.Error.Message)
}

func TestNode_Rejections(t *testing.T) {
	node, srv := newServer(t, devnode.WithAutoMine(false))
	sender := newAccount(t, node, uint256.NewInt(params.Ether))
	poor := newAccount(t, node, nil)

	tests := []struct {
		name    string
		raw     []byte
		message string
	}{
		{"nonce gap", sender.transfer(t, node.ChainID(), 5, big.NewInt(1)), "nonce too high"},
		{"wrong chain", sender.transfer(t, 1, 0, big.NewInt(1)), "invalid chain id"},
		{"no funds", poor.transfer(t, node.ChainID(), 0, big.NewInt(1)), "insufficient funds"},
		{"garbage", []byte{0xde, 0xad}, "rlp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := call(t, srv, "eth_sendRawTransaction", hexutil.Bytes(tt.raw))
			require.NotNil(t, reply.Error)
			assert.Contains(t, reply.Error.Message, tt.message)
		})
	}
	assert.Equal(t, 0, node.PendingCount())
}

func TestNode_PendingNonceAndRevert(t *testing.T) {
	node, srv := newServer(t, devnode.WithAutoMine(false))
	sender := newAccount(t, node, uint256.NewInt(params.Ether))
	node.Revert(recipient)

	reply := call(t, srv, "eth_sendRawTransaction", hexutil.Bytes(sender.transfer(t, node.ChainID(), 0, big.NewInt(10))))
	require.Nil(t, reply.Error)
	var hash ethcommon.Hash
	require.NoError(t, json.Unmarshal(reply.Result, &hash))

	var nonce hexutil.Uint64
	require.NoError(t, json.Unmarshal(call(t, srv, "eth_getTransactionCount", sender.signer.Address(), "pending").Result, &nonce))
	assert.Equal(t, uint64(1), uint64(nonce))
	require.NoError(t, json.Unmarshal(call(t, srv, "eth_getTransactionCount", sender.signer.Address(), "latest").Result, &nonce))
	assert.Equal(t, uint64(0), uint64(nonce))

	assert.Equal(t, "null", string(call(t, srv, "eth_getTransactionReceipt", hash).Result))

	node.Mine()

	var receipt devnode.ReceiptResult
	require.NoError(t, json.Unmarshal(call(t, srv, "eth_getTransactionReceipt", hash).Result, &receipt))
	assert.Equal(t, uint64(types.ReceiptStatusFailed), uint64(receipt.Status))
	assert.True(t, node.Balance(recipient).IsZero())
}

func TestNode_InjectedFailures(t *testing.T) {
	node, srv := newServer(t)
	node.FailNext("eth_blockNumber", -32603, "internal")

	reply := call(t, srv, "eth_blockNumber")
	require.NotNil(t, reply.Error)
	assert.Equal(t, -32603, reply.Error.Code)

	reply = call(t, srv, "eth_blockNumber")
	assert.Nil(t, reply.Error)
	assert.Equal(t, 2, node.CallCount("eth_blockNumber"))

	reply = call(t, srv, "eth_nope")
	require.NotNil(t, reply.Error)
	assert.Equal(t, devnode.CodeMethodNotFound, reply.Error.Code)
}

func TestNode_StartStop(t *testing.T) {
	node := devnode.New(devnode.WithLogger(log.Nop()))
	require.NoError(t, node.Start("127.0.0.1:0"))
	defer node.Stop()

	resp, err := http.Post(node.URL(), "application/json",
		bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply rpcReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, `"0x539"`, string(reply.Result))
}
