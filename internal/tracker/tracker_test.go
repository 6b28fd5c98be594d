package tracker

import (
	"context"
	"net"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/evm-wallet/internal/client"
	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/devnode"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
	"github.com/AlexZinkM/evm-wallet/internal/storage"
	"github.com/AlexZinkM/evm-wallet/internal/txbuilder"
)

const recipientHex = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

var recipient = ethcommon.HexToAddress(recipientHex)

type fixture struct {
	node    *devnode.Node
	client  *client.EthereumClient
	builder *txbuilder.Builder
	signer  keystore.Signer
	journal *Journal
}

func newFixture(t *testing.T, opts ...devnode.Option) *fixture {
	t.Helper()
	node := devnode.New(append([]devnode.Option{devnode.WithLogger(log.Nop())}, opts...)...)
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	ks, err := keystore.New(keystore.WithMnemonic(false), keystore.WithLogger(log.Nop()))
	require.NoError(t, err)
	km, err := ks.CreateKey()
	require.NoError(t, err)
	signer, err := ks.Signer(km.Index())
	require.NoError(t, err)
	node.Fund(km.Address(), mustWei(t, "1.0"))

	c := client.NewEthereumClient(srv.URL, 2*time.Second)
	return &fixture{
		node:    node,
		client:  c,
		builder: txbuilder.New(c, node.ChainID()).WithLogger(log.Nop()),
		signer:  signer,
		journal: NewJournal(storage.NewMemory()),
	}
}

func (f *fixture) tracker(cfg Config, opts ...Option) *Tracker {
	if cfg.ChainID == 0 {
		cfg.ChainID = f.node.ChainID()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}
	opts = append([]Option{WithLogger(log.Nop()), WithJournal(f.journal)}, opts...)
	return New(f.client, cfg, opts...)
}

func (f *fixture) build(t *testing.T, amount string) *txbuilder.SignedTransaction {
	t.Helper()
	tx, err := f.builder.Build(context.Background(), f.signer, recipientHex, amount)
	require.NoError(t, err)
	return tx
}

func mustWei(t *testing.T, eth string) *uint256.Int {
	t.Helper()
	wei, err := common.EtherToWei(eth)
	require.NoError(t, err)
	return wei
}

func states(out *Outcome) []State {
	var s []State
	for _, tr := range out.Transitions {
		s = append(s, tr.State)
	}
	return s
}

func TestSubmitAndWait_Confirmed(t *testing.T) {
	f := newFixture(t)
	tx := f.build(t, "0.3")

	out, err := f.tracker(Config{}).SubmitAndWait(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, tx.Hash(), out.Hash)
	assert.Equal(t, []State{StateBuilt, StateBroadcasting, StatePending, StateConfirmed}, states(out))

	require.NotNil(t, out.Receipt)
	assert.Equal(t, tx.Hash(), out.Receipt.TransactionHash)
	assert.Equal(t, uint64(1), out.Receipt.BlockNumber)
	assert.Equal(t, params.TxGas, out.Receipt.GasUsed)
	assert.Equal(t, "21000000000000", out.Receipt.Fee.Dec())
	assert.Equal(t, "300000000000000000", out.Receipt.Value.Dec())
	assert.Equal(t, f.signer.Address(), out.Receipt.From)
	assert.Equal(t, recipient, out.Receipt.To)

	assert.Equal(t, "300000000000000000", f.node.Balance(recipient).Dec())
	assert.Equal(t, "699979000000000000", f.node.Balance(f.signer.Address()).Dec())
}

func TestWait_TimedOutThenLookup(t *testing.T) {
	f := newFixture(t, devnode.WithAutoMine(false))
	ticks := make(chan time.Duration)
	tc := clock.NewTestClockWithTickSignal(time.Unix(1_700_000_000, 0), ticks)
	tr := f.tracker(Config{PollInterval: 4 * time.Second, ConfirmTimeout: 10 * time.Second}, WithClock(tc))

	tx := f.build(t, "0.1")
	sub, err := tr.Submit(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, StatePending, sub.State())

	done := make(chan *Outcome, 1)
	go func() {
		out, _ := tr.Wait(context.Background(), sub)
		done <- out
	}()

	var waits []time.Duration
	var out *Outcome
	for out == nil {
		select {
		case d := <-ticks:
			waits = append(waits, d)
			tc.SetTime(tc.Now().Add(d))
		case out = <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not finish")
		}
	}

	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second, 2 * time.Second}, waits)
	assert.Equal(t, StateTimedOut, out.State)
	assert.ErrorIs(t, out.Err, common.ErrTimedOut)
	assert.Equal(t, tx.Hash(), out.Hash)
	assert.Nil(t, out.Receipt)

	res, err := tr.Lookup(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, StatePending, res.State)
	require.NotNil(t, res.Record)
	assert.Equal(t, StateTimedOut, res.Record.State)

	f.node.Mine()
	res, err = tr.Lookup(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, "100000000000000000", res.Receipt.Value.Dec())
}

func TestSubmitAndWait_Reverted(t *testing.T) {
	f := newFixture(t)
	f.node.Revert(recipient)

	tx := f.build(t, "0.1")
	out, err := f.tracker(Config{}).SubmitAndWait(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrRejected)
	assert.ErrorIs(t, err, common.ErrReverted)
	assert.Equal(t, StateRejected, out.State)
	assert.Nil(t, out.Receipt)
	assert.True(t, f.node.Balance(recipient).IsZero())

	// A reverted transaction is still mined and pays for its gas.
	rec, err := f.journal.Get(tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, StateRejected, rec.State)
	assert.Equal(t, "21000000000000", rec.FeeWei)
	assert.Equal(t, uint64(1), rec.BlockNumber)
}

func TestSubmit_NodeRejectionIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.node.FailNext("eth_sendRawTransaction", devnode.CodeTxRejected, "nonce too low")

	sub, err := f.tracker(Config{BroadcastRetries: 3}).Submit(context.Background(), f.build(t, "0.1"))
	require.ErrorIs(t, err, common.ErrRejected)
	assert.ErrorIs(t, err, common.ErrNodeError)
	assert.Contains(t, err.Error(), "nonce too low")
	assert.Equal(t, StateRejected, sub.State())
	assert.Equal(t, 1, f.node.CallCount("eth_sendRawTransaction"))

	_, accepted := sub.Hash()
	assert.False(t, accepted)
	assert.Equal(t, ethcommon.Hash{}, sub.Outcome().Hash)
}

func TestSubmit_AlreadyKnownIsPending(t *testing.T) {
	f := newFixture(t, devnode.WithAutoMine(false))
	tx := f.build(t, "0.1")
	_, err := f.client.SendRawTransaction(context.Background(), tx.Raw())
	require.NoError(t, err)

	sub, err := f.tracker(Config{}).Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, StatePending, sub.State())
}

func TestSubmit_LocalValidationMakesNoCall(t *testing.T) {
	f := newFixture(t)
	tx := f.build(t, "0.1")

	sub, err := f.tracker(Config{ChainID: 11155111}).Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrRejected)
	assert.ErrorIs(t, err, common.ErrChainMismatch)
	assert.Equal(t, StateRejected, sub.State())
	assert.Equal(t, 0, f.node.CallCount("eth_sendRawTransaction"))
}

type countingClient struct {
	ChainClient
	sends atomic.Int32
}

func (c *countingClient) SendRawTransaction(ctx context.Context, raw []byte) (ethcommon.Hash, error) {
	c.sends.Add(1)
	return c.ChainClient.SendRawTransaction(ctx, raw)
}

func TestSubmit_RetriesPreSendFailures(t *testing.T) {
	f := newFixture(t)
	tx := f.build(t, "0.1")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cc := &countingClient{ChainClient: client.NewEthereumClient("http://"+addr, time.Second)}
	tr := New(cc, Config{ChainID: f.node.ChainID(), BroadcastRetries: 2, RetryBackoff: time.Millisecond},
		WithLogger(log.Nop()))

	sub, err := tr.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrRejected)
	assert.ErrorIs(t, err, common.ErrNetworkUnreachable)
	assert.Equal(t, StateRejected, sub.State())
	assert.Equal(t, int32(3), cc.sends.Load())
}

func TestSubmit_UnreachableEndpointKeyStaysOutOfJournal(t *testing.T) {
	const key = "SECRET-API-KEY"
	f := newFixture(t)
	tx := f.build(t, "0.1")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	tr := New(client.NewEthereumClient("http://"+addr+"/v3/"+key, time.Second),
		Config{ChainID: f.node.ChainID(), RetryBackoff: time.Millisecond},
		WithLogger(log.Nop()), WithJournal(f.journal))

	sub, err := tr.Submit(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrNetworkUnreachable)
	assert.Equal(t, StateRejected, sub.State())
	assert.NotContains(t, err.Error(), key)

	rec, err := f.journal.Get(tx.Hash())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Error)
	assert.NotContains(t, rec.Error, key)
	for _, step := range rec.Transitions {
		assert.NotContains(t, step.Error, key)
	}
}

func TestSubmit_BroadcastTimeoutKeepsTracking(t *testing.T) {
	f := newFixture(t)
	f.node.Delay("eth_sendRawTransaction", time.Second)
	f.client = client.NewEthereumClient(f.client.Endpoint(), 100*time.Millisecond)
	tx := f.build(t, "0.1")

	tr := f.tracker(Config{})
	sub, err := tr.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, StatePending, sub.State())
	hash, accepted := sub.Hash()
	assert.True(t, accepted)
	assert.Equal(t, tx.Hash(), hash)

	f.node.Delay("eth_sendRawTransaction", 0)
	out, err := tr.Wait(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
}

func TestWait_ContextDoneKeepsPending(t *testing.T) {
	f := newFixture(t, devnode.WithAutoMine(false))
	tr := f.tracker(Config{})
	sub, err := tr.Submit(context.Background(), f.build(t, "0.1"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out, err := tr.Wait(ctx, sub)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatePending, out.State)
	assert.Equal(t, StatePending, sub.State())
}

func TestWait_ConfirmationDepth(t *testing.T) {
	f := newFixture(t, devnode.WithAutoMine(false))
	tr := f.tracker(Config{Confirmations: 2})
	sub, err := tr.Submit(context.Background(), f.build(t, "0.1"))
	require.NoError(t, err)
	f.node.Mine()

	done := make(chan *Outcome, 1)
	go func() {
		out, _ := tr.Wait(context.Background(), sub)
		done <- out
	}()

	select {
	case <-done:
		t.Fatal("confirmed at depth 1")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StatePending, sub.State())

	f.node.Mine()
	select {
	case out := <-done:
		assert.Equal(t, StateConfirmed, out.State)
		assert.Equal(t, uint64(1), out.Receipt.BlockNumber)
	case <-time.After(5 * time.Second):
		t.Fatal("not confirmed at depth 2")
	}
}

func TestLookup_Unknown(t *testing.T) {
	f := newFixture(t)
	res, err := f.tracker(Config{}).Lookup(context.Background(), ethcommon.HexToHash("0x1234"))
	require.NoError(t, err)
	assert.Equal(t, StateUnknown, res.State)
	assert.Nil(t, res.Record)
}

func TestJournal_RecordsTransitions(t *testing.T) {
	f := newFixture(t)
	tr := f.tracker(Config{})

	confirmed := f.build(t, "0.2")
	_, err := tr.SubmitAndWait(context.Background(), confirmed)
	require.NoError(t, err)

	rec, err := f.journal.Get(confirmed.Hash())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, rec.State)
	assert.Equal(t, confirmed.Hash().Hex(), rec.Hash)
	assert.Equal(t, f.signer.Address().Hex(), rec.From)
	assert.Equal(t, recipientHex, rec.To)
	assert.Equal(t, "200000000000000000", rec.ValueWei)
	assert.Equal(t, "21000000000000", rec.FeeWei)
	assert.Equal(t, uint64(1), rec.BlockNumber)
	assert.Len(t, rec.Transitions, 4)

	f.node.FailNext("eth_sendRawTransaction", devnode.CodeTxRejected, "transaction underpriced")
	rejected := f.build(t, "0.1")
	_, err = tr.Submit(context.Background(), rejected)
	require.Error(t, err)

	rec, err = f.journal.Get(rejected.Hash())
	require.NoError(t, err)
	assert.Equal(t, StateRejected, rec.State)
	assert.Empty(t, rec.Hash)
	assert.Contains(t, rec.Error, "transaction underpriced")

	all, err := f.journal.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.journal.Get(ethcommon.HexToHash("0xdead"))
	assert.ErrorIs(t, err, ErrNotJournaled)
}
