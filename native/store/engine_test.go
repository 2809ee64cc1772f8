package store

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/events"
)

type mockState struct {
	owner    common.Address
	treasury common.Address
	prices   map[string]*big.Int
	balances map[common.Address]*big.Int
	paused   bool
}

func newMockState(owner common.Address) *mockState {
	return &mockState{
		owner:    owner,
		prices:   make(map[string]*big.Int),
		balances: make(map[common.Address]*big.Int),
	}
}

func (m *mockState) Owner() (common.Address, error) { return m.owner, nil }

func (m *mockState) ProductPrice(productID string) (*big.Int, error) {
	if price, ok := m.prices[productID]; ok {
		return new(big.Int).Set(price), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetProductPrice(productID string, price *big.Int) error {
	if price == nil || price.Sign() == 0 {
		delete(m.prices, productID)
		return nil
	}
	m.prices[productID] = new(big.Int).Set(price)
	return nil
}

func (m *mockState) Treasury() (common.Address, error) { return m.treasury, nil }

func (m *mockState) SetTreasury(addr common.Address) error {
	m.treasury = addr
	return nil
}

func (m *mockState) Balance(symbol string, addr common.Address) (*big.Int, error) {
	if balance, ok := m.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetBalance(symbol string, addr common.Address, amount *big.Int) error {
	m.balances[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) Paused(module string) (bool, error) { return m.paused, nil }

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func usd(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), big.NewInt(1e18))
}

type testHarness struct {
	engine  *Engine
	state   *mockState
	emitter *capturingEmitter
	owner   common.Address
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	owner := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	h := &testHarness{
		engine:  NewEngine(),
		state:   newMockState(owner),
		emitter: &capturingEmitter{},
		owner:   owner,
	}
	h.state.treasury = common.HexToAddress("0x00000000000000000000000000000000000000BB")
	h.engine.SetState(h.state)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return h
}

func TestCatalogMutationsAreExistenceGated(t *testing.T) {
	h := newTestHarness(t)
	stranger := common.HexToAddress("0x0000000000000000000000000000000000000001")

	if err := h.engine.AddProduct(stranger, "starter-pack", usd(5)); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := h.engine.UpdateProduct(h.owner, "starter-pack", usd(5)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := h.engine.DeleteProduct(h.owner, "starter-pack"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if err := h.engine.AddProduct(h.owner, "starter-pack", big.NewInt(0)); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	if err := h.engine.AddProduct(h.owner, "starter-pack", usd(5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.engine.AddProduct(h.owner, "starter-pack", usd(7)); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := h.engine.UpdateProduct(h.owner, "starter-pack", usd(7)); err != nil {
		t.Fatalf("update: %v", err)
	}
	price, err := h.engine.ProductPrice("starter-pack")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.Cmp(usd(7)) != 0 {
		t.Fatalf("price: got %s want %s", price, usd(7))
	}

	if err := h.engine.DeleteProduct(h.owner, "starter-pack"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.engine.ProductPrice("starter-pack"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// A deleted id can be re-added.
	if err := h.engine.AddProduct(h.owner, "starter-pack", usd(9)); err != nil {
		t.Fatalf("re-add: %v", err)
	}
}

func TestProductIDIsTrimmed(t *testing.T) {
	h := newTestHarness(t)

	if err := h.engine.AddProduct(h.owner, "  gem-bundle  ", usd(3)); err != nil {
		t.Fatalf("add: %v", err)
	}
	price, err := h.engine.ProductPrice("gem-bundle")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.Cmp(usd(3)) != 0 {
		t.Fatalf("price: got %s want %s", price, usd(3))
	}
	if err := h.engine.AddProduct(h.owner, "   ", usd(1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank id, got %v", err)
	}
}

func TestPurchasePullsExactPrice(t *testing.T) {
	h := newTestHarness(t)
	buyer := common.HexToAddress("0x0000000000000000000000000000000000000001")
	player := common.HexToAddress("0x0000000000000000000000000000000000000002")

	if err := h.engine.AddProduct(h.owner, "gem-bundle", usd(10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	h.state.balances[buyer] = usd(25)

	receipt, err := h.engine.Purchase(buyer, player, "gem-bundle")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if receipt == "" {
		t.Fatal("expected non-empty receipt id")
	}
	if got := h.state.balances[buyer]; got.Cmp(usd(15)) != 0 {
		t.Fatalf("buyer balance: got %s want %s", got, usd(15))
	}
	if got := h.state.balances[h.state.treasury]; got.Cmp(usd(10)) != 0 {
		t.Fatalf("treasury balance: got %s want %s", got, usd(10))
	}

	second, err := h.engine.Purchase(buyer, player, "gem-bundle")
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if second == receipt {
		t.Fatal("receipt ids must be unique per purchase")
	}

	var purchased []events.ProductPurchased
	for _, evt := range h.emitter.events {
		if p, ok := evt.(events.ProductPurchased); ok {
			purchased = append(purchased, p)
		}
	}
	if len(purchased) != 2 {
		t.Fatalf("purchase events: got %d want 2", len(purchased))
	}
	if purchased[0].Player != player || purchased[0].Price.Cmp(usd(10)) != 0 {
		t.Fatalf("unexpected purchase payload: %+v", purchased[0])
	}
}

func TestPurchaseFailsAtomically(t *testing.T) {
	h := newTestHarness(t)
	buyer := common.HexToAddress("0x0000000000000000000000000000000000000001")
	player := common.HexToAddress("0x0000000000000000000000000000000000000002")

	if err := h.engine.AddProduct(h.owner, "gem-bundle", usd(10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	h.state.balances[buyer] = usd(9)

	if _, err := h.engine.Purchase(buyer, player, "gem-bundle"); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := h.state.balances[buyer]; got.Cmp(usd(9)) != 0 {
		t.Fatalf("buyer balance after failed purchase: got %s want %s", got, usd(9))
	}
	if got, ok := h.state.balances[h.state.treasury]; ok && got.Sign() != 0 {
		t.Fatalf("treasury balance after failed purchase: got %s want 0", got)
	}

	if _, err := h.engine.Purchase(buyer, player, "no-such-product"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.engine.Purchase(common.Address{}, player, "gem-bundle"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero buyer, got %v", err)
	}
}

func TestPurchaseBlockedWhilePaused(t *testing.T) {
	h := newTestHarness(t)
	buyer := common.HexToAddress("0x0000000000000000000000000000000000000001")
	player := common.HexToAddress("0x0000000000000000000000000000000000000002")

	if err := h.engine.AddProduct(h.owner, "gem-bundle", usd(10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	h.state.balances[buyer] = usd(25)
	h.state.paused = true

	if _, err := h.engine.Purchase(buyer, player, "gem-bundle"); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	// Price reads stay available while paused.
	if _, err := h.engine.ProductPrice("gem-bundle"); err != nil {
		t.Fatalf("price while paused: %v", err)
	}
}

func TestSetTreasuryOwnerGated(t *testing.T) {
	h := newTestHarness(t)
	stranger := common.HexToAddress("0x0000000000000000000000000000000000000001")
	next := common.HexToAddress("0x00000000000000000000000000000000000000CC")

	if err := h.engine.SetTreasury(stranger, next); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := h.engine.SetTreasury(h.owner, common.Address{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero treasury, got %v", err)
	}
	if err := h.engine.SetTreasury(h.owner, next); err != nil {
		t.Fatalf("set treasury: %v", err)
	}
	if h.state.treasury != next {
		t.Fatalf("treasury: got %s want %s", h.state.treasury.Hex(), next.Hex())
	}
}
