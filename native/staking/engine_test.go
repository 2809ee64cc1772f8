package staking

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/events"
)

type mockState struct {
	cfg    *Config
	queues map[common.Address][]Entry
	paused bool
}

func newMockState(cfg Config) *mockState {
	return &mockState{cfg: &cfg, queues: make(map[common.Address][]Entry)}
}

func (m *mockState) StakingConfig() (Config, bool, error) {
	if m.cfg == nil {
		return Config{}, false, nil
	}
	return *m.cfg, true, nil
}

func (m *mockState) StakeEntries(owner common.Address) ([]Entry, error) {
	entries := m.queues[owner]
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Clone())
	}
	return out, nil
}

func (m *mockState) SetStakeEntries(owner common.Address, entries []Entry) error {
	stored := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		stored = append(stored, entry.Clone())
	}
	m.queues[owner] = stored
	return nil
}

func (m *mockState) Paused(module string) (bool, error) { return m.paused, nil }

type transfer struct {
	from, to common.Address
	amount   *big.Int
}

// mockLedger records transfers and tracks per-address balances so the tests
// can assert the vault accounting without a full token engine.
type mockLedger struct {
	balances  map[common.Address]*big.Int
	transfers []transfer
	failWith  error
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[common.Address]*big.Int)}
}

func (m *mockLedger) fund(addr common.Address, amount *big.Int) {
	m.balances[addr] = new(big.Int).Set(amount)
}

func (m *mockLedger) balance(addr common.Address) *big.Int {
	if b, ok := m.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (m *mockLedger) Transfer(from, to common.Address, amount *big.Int) error {
	if m.failWith != nil {
		return m.failWith
	}
	fromBal := m.balance(from)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("mock ledger: insufficient balance")
	}
	m.balances[from] = fromBal.Sub(fromBal, amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	m.transfers = append(m.transfers, transfer{from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func tokens(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), big.NewInt(1e18))
}

type testHarness struct {
	engine *Engine
	state  *mockState
	ledger *mockLedger
	now    int64
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		engine: NewEngine(),
		state: newMockState(Config{
			StakeUnit:          tokens(1000),
			MaxStakePerAccount: tokens(10_000),
			LockPeriod:         86_400,
		}),
		ledger: newMockLedger(),
		now:    1_700_000_000,
	}
	h.engine.SetState(h.state)
	h.engine.SetToken(h.ledger)
	h.engine.SetNowFunc(func() int64 { return h.now })
	return h
}

func TestStakeValidatesUnitAndCap(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))

	if err := h.engine.Stake(alice, tokens(1500)); !errors.Is(err, ErrNotUnitMultiple) {
		t.Fatalf("expected ErrNotUnitMultiple, got %v", err)
	}
	if err := h.engine.Stake(alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := h.engine.Stake(alice, tokens(3000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := h.engine.Stake(alice, tokens(8000)); !errors.Is(err, ErrStakeCapExceeded) {
		t.Fatalf("expected ErrStakeCapExceeded, got %v", err)
	}
	// Exactly at the cap is allowed.
	if err := h.engine.Stake(alice, tokens(7000)); err != nil {
		t.Fatalf("stake to cap: %v", err)
	}

	staked, err := h.engine.StakedBalance(alice)
	if err != nil {
		t.Fatalf("staked balance: %v", err)
	}
	if staked.Cmp(tokens(10_000)) != 0 {
		t.Fatalf("staked balance: got %s want %s", staked, tokens(10_000))
	}
	if h.ledger.balance(VaultAddress).Cmp(tokens(10_000)) != 0 {
		t.Fatalf("vault balance: got %s want %s", h.ledger.balance(VaultAddress), tokens(10_000))
	}
}

func TestStakeFailsWhenTransferRejected(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	rejected := errors.New("token: transfer exceeds unlocked balance")
	h.ledger.failWith = rejected

	err := h.engine.Stake(alice, tokens(1000))
	if !errors.Is(err, rejected) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	entries, _ := h.engine.Stakes(alice)
	if len(entries) != 0 {
		t.Fatalf("queue after failed stake: got %d entries want 0", len(entries))
	}
}

// reentrantLedger calls back into the engine from inside Transfer before
// delegating to the real mock, the way a hostile token hook would.
type reentrantLedger struct {
	inner  *mockLedger
	engine *Engine
	owner  common.Address
	amount *big.Int
	errs   []error
}

func (r *reentrantLedger) Transfer(from, to common.Address, amount *big.Int) error {
	r.errs = append(r.errs, r.engine.Stake(r.owner, r.amount))
	return r.inner.Transfer(from, to, amount)
}

func TestStakeRejectsReentrantLedgerCallback(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))

	ledger := &reentrantLedger{inner: h.ledger, engine: h.engine, owner: alice, amount: tokens(1000)}
	h.engine.SetToken(ledger)

	if err := h.engine.Stake(alice, tokens(1000)); err != nil {
		t.Fatalf("outer stake: %v", err)
	}
	if len(ledger.errs) == 0 {
		t.Fatalf("ledger was never invoked")
	}
	for _, err := range ledger.errs {
		if !errors.Is(err, ErrReentrancy) {
			t.Fatalf("expected ErrReentrancy from nested stake, got %v", err)
		}
	}
	// Only the outer stake landed.
	entries, _ := h.engine.Stakes(alice)
	if len(entries) != 1 {
		t.Fatalf("queue length: got %d want 1", len(entries))
	}
	if h.ledger.balance(VaultAddress).Cmp(tokens(1000)) != 0 {
		t.Fatalf("vault balance: got %s want %s", h.ledger.balance(VaultAddress), tokens(1000))
	}
}

func TestWithdrawOldestOnly(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))

	if err := h.engine.Withdraw(alice); !errors.Is(err, ErrNoStakes) {
		t.Fatalf("expected ErrNoStakes, got %v", err)
	}

	if err := h.engine.Stake(alice, tokens(1000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	h.now += 10
	if err := h.engine.Stake(alice, tokens(2000)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if err := h.engine.Withdraw(alice); !errors.Is(err, ErrLockNotExpired) {
		t.Fatalf("expected ErrLockNotExpired, got %v", err)
	}

	// Maturity is measured exactly at StakedAt + LockPeriod.
	h.now = 1_700_000_000 + 86_400
	if err := h.engine.Withdraw(alice); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	entries, _ := h.engine.Stakes(alice)
	if len(entries) != 1 {
		t.Fatalf("queue after withdraw: got %d entries want 1", len(entries))
	}
	if entries[0].Amount.Cmp(tokens(2000)) != 0 {
		t.Fatalf("remaining entry: got %s want %s", entries[0].Amount, tokens(2000))
	}
	// The second entry is 10 seconds younger and still locked.
	if err := h.engine.Withdraw(alice); !errors.Is(err, ErrLockNotExpired) {
		t.Fatalf("expected ErrLockNotExpired for younger entry, got %v", err)
	}
}

func TestBatchWithdrawStopsAtFirstImmature(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))
	emitter := &capturingEmitter{}
	h.engine.SetEmitter(emitter)

	start := h.now
	for i := 0; i < 4; i++ {
		if err := h.engine.Stake(alice, tokens(1000)); err != nil {
			t.Fatalf("stake %d: %v", i, err)
		}
		h.now += 3600
	}

	// Two entries have matured, two have not.
	h.now = start + 86_400 + 3600
	withdrawn, err := h.engine.BatchWithdraw(alice)
	if err != nil {
		t.Fatalf("batch withdraw: %v", err)
	}
	if withdrawn != 2 {
		t.Fatalf("withdrawn: got %d want 2", withdrawn)
	}
	entries, _ := h.engine.Stakes(alice)
	if len(entries) != 2 {
		t.Fatalf("queue after batch: got %d entries want 2", len(entries))
	}
	if h.ledger.balance(alice).Cmp(tokens(18_000)) != 0 {
		t.Fatalf("owner balance after batch: got %s want %s", h.ledger.balance(alice), tokens(18_000))
	}

	if _, err := h.engine.BatchWithdraw(alice); !errors.Is(err, ErrNothingMatured) {
		t.Fatalf("expected ErrNothingMatured, got %v", err)
	}

	for _, evt := range emitter.ofType(events.TypeStakeWithdrawn) {
		withdrawnEvt, ok := evt.(events.StakeWithdrawn)
		if !ok {
			t.Fatalf("unexpected event payload %T", evt)
		}
		if withdrawnEvt.Operation != events.StakeOperationBatchWithdraw {
			t.Fatalf("operation: got %q want %q", withdrawnEvt.Operation, events.StakeOperationBatchWithdraw)
		}
	}
}

func TestBatchWithdrawDrainsFullyMaturedQueue(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))

	for i := 0; i < 3; i++ {
		if err := h.engine.Stake(alice, tokens(1000)); err != nil {
			t.Fatalf("stake %d: %v", i, err)
		}
	}
	h.now += 86_400
	withdrawn, err := h.engine.BatchWithdraw(alice)
	if err != nil {
		t.Fatalf("batch withdraw: %v", err)
	}
	if withdrawn != 3 {
		t.Fatalf("withdrawn: got %d want 3", withdrawn)
	}
	staked, _ := h.engine.StakedBalance(alice)
	if staked.Sign() != 0 {
		t.Fatalf("staked balance after drain: got %s want 0", staked)
	}
}

func TestStakingRespectsPause(t *testing.T) {
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	h := newTestHarness(t)
	h.ledger.fund(alice, tokens(20_000))

	if err := h.engine.Stake(alice, tokens(1000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	h.state.paused = true

	if err := h.engine.Stake(alice, tokens(1000)); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on stake, got %v", err)
	}
	if err := h.engine.Withdraw(alice); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on withdraw, got %v", err)
	}
	if _, err := h.engine.BatchWithdraw(alice); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on batch withdraw, got %v", err)
	}
	// Views stay readable.
	if _, err := h.engine.StakedBalance(alice); err != nil {
		t.Fatalf("staked balance while paused: %v", err)
	}
}

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *capturingEmitter) ofType(eventType string) []events.Event {
	var matched []events.Event
	for _, evt := range c.events {
		if evt.EventType() == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}
