// Package devnode implements a small in-process Ethereum JSON-RPC node.
// It holds balances and nonces in memory, pools EIP-155 transfers and mines
// them into blocks on demand. It backs the --simulate mode and offline tests.
package devnode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/AlexZinkM/evm-wallet/internal/log"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// DefaultChainID is the chain id of the dev network preset.
const DefaultChainID = 1337

// DefaultGasPrice is 1 gwei.
var DefaultGasPrice = uint256.NewInt(1_000_000_000)

type injected struct {
	code       int
	message    string
	httpStatus int
}

// Node is the simulated JSON-RPC node. It implements http.Handler.
type Node struct {
	mu        sync.Mutex
	chainID   uint64
	signer    types.Signer
	gasPrice  *uint256.Int
	autoMine  bool
	head      uint64
	balances  map[common.Address]*uint256.Int
	nonces    map[common.Address]uint64
	pool      []*txRecord
	txs       map[common.Hash]*txRecord
	reverting map[common.Address]bool

	failures map[string][]injected
	delays   map[string]time.Duration
	calls    map[string]int

	logger zerolog.Logger
	server *http.Server
	ln     net.Listener
}

// Option configures a Node.
type Option func(*Node)

// WithChainID sets the served chain id.
func WithChainID(id uint64) Option {
	return func(n *Node) { n.chainID = id }
}

// WithAutoMine makes every accepted transaction get mined immediately (default).
func WithAutoMine(enabled bool) Option {
	return func(n *Node) { n.autoMine = enabled }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// New creates a node with an empty genesis state.
func New(opts ...Option) *Node {
	n := &Node{
		chainID:   DefaultChainID,
		gasPrice:  new(uint256.Int).Set(DefaultGasPrice),
		autoMine:  true,
		balances:  make(map[common.Address]*uint256.Int),
		nonces:    make(map[common.Address]uint64),
		txs:       make(map[common.Hash]*txRecord),
		reverting: make(map[common.Address]bool),
		failures:  make(map[string][]injected),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		logger:    log.DevNode,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.signer = types.LatestSignerForChainID(uint256.NewInt(n.chainID).ToBig())
	return n
}

// ChainID returns the served chain id.
func (n *Node) ChainID() uint64 {
	return n.chainID
}

// Fund credits wei to addr outside of any transaction.
func (n *Node) Fund(addr common.Address, wei *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	b := new(uint256.Int).Set(n.balanceOf(addr))
	n.balances[addr] = b.Add(b, wei)
	n.logger.Debug().Str("address", addr.Hex()).Str("wei", wei.Dec()).Msg("Funded")
}

// Balance returns the confirmed balance of addr.
func (n *Node) Balance(addr common.Address) *uint256.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(uint256.Int).Set(n.balanceOf(addr))
}

// SetAutoMine switches immediate mining on or off.
func (n *Node) SetAutoMine(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.autoMine = enabled
}

// Mine seals a block with every pooled transaction and returns its number.
func (n *Node) Mine() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mine()
}

// Head returns the latest block number.
func (n *Node) Head() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.head
}

// PendingCount returns the number of pooled transactions.
func (n *Node) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pool)
}

// Revert makes every later transfer to addr fail with status 0.
// The sender still pays for gas.
func (n *Node) Revert(addr common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reverting[addr] = true
}

// FailNext makes the next call of method return a JSON-RPC error without running it.
func (n *Node) FailNext(method string, code int, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[method] = append(n.failures[method], injected{code: code, message: message})
}

// FailNextHTTP makes the next call of method answer with an HTTP error status.
func (n *Node) FailNextHTTP(method string, status int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[method] = append(n.failures[method], injected{httpStatus: status})
}

// Delay holds every reply to method for d. The call itself still runs first,
// so a delayed eth_sendRawTransaction is accepted even if the client gives up.
func (n *Node) Delay(method string, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if d <= 0 {
		delete(n.delays, method)
		return
	}
	n.delays[method] = d
}

// CallCount returns how many times method was requested.
func (n *Node) CallCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// TotalCalls returns the number of requests served for any method.
func (n *Node) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, c := range n.calls {
		total += c
	}
	return total
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (n *Node) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("devnode listen: %w", err)
	}
	n.ln = ln
	n.server = &http.Server{
		Handler:     n,
		ReadTimeout: 30 * time.Second,
	}

	go func() {
		if err := n.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			n.logger.Error().Err(err).Msg("Dev node server error")
		}
	}()

	n.logger.Info().Str("addr", ln.Addr().String()).Uint64("chain_id", n.chainID).Msg("Dev node started")
	return nil
}

// URL returns the HTTP endpoint of a started node.
func (n *Node) URL() string {
	if n.ln == nil {
		return ""
	}
	return "http://" + n.ln.Addr().String()
}

// Stop gracefully shuts down a started node.
func (n *Node) Stop() error {
	if n.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.server.Shutdown(ctx)
}

// ServeHTTP handles one JSON-RPC request.
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, Response{JSONRPC: "2.0", Error: &Error{Code: CodeInvalidRequest, Message: "only POST method is allowed"}})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil || len(body) > maxBodySize {
		writeJSON(w, Response{JSONRPC: "2.0", Error: &Error{Code: CodeInvalidRequest, Message: "failed to read request body"}})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, Response{JSONRPC: "2.0", Error: &Error{Code: CodeParseError, Message: "invalid JSON"}})
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	delay := n.delays[req.Method]
	var fail *injected
	if queue := n.failures[req.Method]; len(queue) > 0 {
		fail = &queue[0]
		n.failures[req.Method] = queue[1:]
	}
	n.mu.Unlock()

	if fail != nil && fail.httpStatus != 0 {
		http.Error(w, http.StatusText(fail.httpStatus), fail.httpStatus)
		return
	}

	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if fail != nil {
		resp.Error = &Error{Code: fail.code, Message: fail.message}
	} else if result, rpcErr := n.dispatch(&req); rpcErr != nil {
		resp.Error = rpcErr
	} else {
		raw, err := json.Marshal(result)
		if err != nil {
			resp.Error = &Error{Code: CodeInternalError, Message: err.Error()}
		} else {
			resp.Result = raw
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
