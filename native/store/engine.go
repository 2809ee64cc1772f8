package store

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"hatchnet/core/events"
	"hatchnet/observability/metrics"
)

// PaymentTokenSymbol identifies the stablecoin purchases settle in.
const PaymentTokenSymbol = "USDH"

// PauseModule names the pause toggle guarding the purchase path.
const PauseModule = "store"

var (
	// ErrNotFound indicates the product does not exist (zero-price sentinel).
	ErrNotFound = errors.New("store: product not found")
	// ErrAlreadyExists indicates an add for a product that already exists.
	ErrAlreadyExists = errors.New("store: product already exists")
	// ErrInvalidPrice indicates a zero or negative price. Zero encodes
	// nonexistence, so a real product can never be priced at zero.
	ErrInvalidPrice = errors.New("store: price must be positive")
	// ErrInvalidInput covers empty ids and zero addresses.
	ErrInvalidInput = errors.New("store: invalid input")
	// ErrTransferFailed indicates the payment pull could not complete. The
	// purchase leaves no partial state behind.
	ErrTransferFailed = errors.New("store: payment transfer failed")
	// ErrNotAuthorized indicates the caller is not the configured owner.
	ErrNotAuthorized = errors.New("store: not authorized")
	// ErrPaused indicates the store pause toggle is enabled.
	ErrPaused = errors.New("store: module paused")
	// ErrReentrancy indicates a nested call into a guarded operation.
	ErrReentrancy = errors.New("store: reentrant call")
)

type engineState interface {
	Owner() (common.Address, error)
	ProductPrice(productID string) (*big.Int, error)
	SetProductPrice(productID string, price *big.Int) error
	Treasury() (common.Address, error)
	SetTreasury(common.Address) error
	Balance(symbol string, addr common.Address) (*big.Int, error)
	SetBalance(symbol string, addr common.Address, amount *big.Int) error
	Paused(module string) (bool, error)
}

// Engine implements the fixed-price product catalog with stablecoin
// settlement. Catalog mutations are owner-gated; purchases pull the exact
// price from the buyer to the treasury.
//
// Engine is not safe for concurrent use.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	entered bool
}

// NewEngine creates a store engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) enter() error {
	if e.entered {
		return ErrReentrancy
	}
	e.entered = true
	return nil
}

func (e *Engine) exit() { e.entered = false }

func (e *Engine) requireState() error {
	if e == nil || e.state == nil {
		return fmt.Errorf("store engine: state not configured")
	}
	return nil
}

func (e *Engine) requireOwner(actor common.Address) error {
	owner, err := e.state.Owner()
	if err != nil {
		return err
	}
	if owner == (common.Address{}) || actor != owner {
		return ErrNotAuthorized
	}
	return nil
}

func normalizeProductID(productID string) (string, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return "", ErrInvalidInput
	}
	return id, nil
}

// ProductPrice returns the catalog price, or ErrNotFound for the zero-price
// sentinel.
func (e *Engine) ProductPrice(productID string) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	id, err := normalizeProductID(productID)
	if err != nil {
		return nil, err
	}
	price, err := e.state.ProductPrice(id)
	if err != nil {
		return nil, err
	}
	if price.Sign() == 0 {
		return nil, ErrNotFound
	}
	return price, nil
}

// AddProduct creates a catalog entry. Owner only; the product must not
// already exist.
func (e *Engine) AddProduct(actor common.Address, productID string, price *big.Int) error {
	return e.mutateProduct(actor, productID, price, events.TypeProductAdded)
}

// UpdateProduct reprices an existing catalog entry. Owner only.
func (e *Engine) UpdateProduct(actor common.Address, productID string, price *big.Int) error {
	return e.mutateProduct(actor, productID, price, events.TypeProductUpdated)
}

// DeleteProduct removes an existing catalog entry. Owner only.
func (e *Engine) DeleteProduct(actor common.Address, productID string) error {
	return e.mutateProduct(actor, productID, nil, events.TypeProductDeleted)
}

func (e *Engine) mutateProduct(actor common.Address, productID string, price *big.Int, kind string) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(actor); err != nil {
		return err
	}
	id, err := normalizeProductID(productID)
	if err != nil {
		return err
	}
	current, err := e.state.ProductPrice(id)
	if err != nil {
		return err
	}
	exists := current.Sign() > 0

	switch kind {
	case events.TypeProductAdded:
		if exists {
			return ErrAlreadyExists
		}
		if price == nil || price.Sign() <= 0 {
			return ErrInvalidPrice
		}
	case events.TypeProductUpdated:
		if !exists {
			return ErrNotFound
		}
		if price == nil || price.Sign() <= 0 {
			return ErrInvalidPrice
		}
	case events.TypeProductDeleted:
		if !exists {
			return ErrNotFound
		}
		price = big.NewInt(0)
	}

	if err := e.state.SetProductPrice(id, price); err != nil {
		return err
	}
	evt := events.ProductChanged{
		Kind:      kind,
		ProductID: id,
		Actor:     actor,
		Timestamp: e.now(),
	}
	if price.Sign() > 0 {
		evt.Price = new(big.Int).Set(price)
	}
	if exists {
		evt.OldPrice = new(big.Int).Set(current)
	}
	e.emit(evt)
	return nil
}

// Purchase pulls the exact product price from the buyer to the treasury in
// the payment token and emits a purchase record for the named player. A
// failed payment pull aborts the call with no partial state.
func (e *Engine) Purchase(buyer, player common.Address, productID string) (string, error) {
	if err := e.requireState(); err != nil {
		return "", err
	}
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.exit()

	if buyer == (common.Address{}) || player == (common.Address{}) {
		return "", ErrInvalidInput
	}
	paused, err := e.state.Paused(PauseModule)
	if err != nil {
		return "", err
	}
	if paused {
		return "", ErrPaused
	}
	id, err := normalizeProductID(productID)
	if err != nil {
		return "", err
	}
	price, err := e.state.ProductPrice(id)
	if err != nil {
		return "", err
	}
	if price.Sign() == 0 {
		return "", ErrNotFound
	}
	treasury, err := e.state.Treasury()
	if err != nil {
		return "", err
	}
	if treasury == (common.Address{}) {
		return "", fmt.Errorf("store engine: treasury not configured")
	}

	buyerBalance, err := e.state.Balance(PaymentTokenSymbol, buyer)
	if err != nil {
		return "", err
	}
	if buyerBalance.Cmp(price) < 0 {
		return "", ErrTransferFailed
	}
	if err := e.state.SetBalance(PaymentTokenSymbol, buyer, new(big.Int).Sub(buyerBalance, price)); err != nil {
		return "", err
	}
	treasuryBalance, err := e.state.Balance(PaymentTokenSymbol, treasury)
	if err != nil {
		return "", err
	}
	if err := e.state.SetBalance(PaymentTokenSymbol, treasury, new(big.Int).Add(treasuryBalance, price)); err != nil {
		return "", err
	}

	receipt := uuid.NewString()
	metrics.Store().Purchased(price)
	e.emit(events.ProductPurchased{
		ReceiptID: receipt,
		Buyer:     buyer,
		Player:    player,
		ProductID: id,
		Price:     new(big.Int).Set(price),
		Timestamp: e.now(),
	})
	return receipt, nil
}

// SetTreasury replaces the purchase settlement address. Owner only.
func (e *Engine) SetTreasury(actor, treasury common.Address) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(actor); err != nil {
		return err
	}
	if treasury == (common.Address{}) {
		return ErrInvalidInput
	}
	old, err := e.state.Treasury()
	if err != nil {
		return err
	}
	if err := e.state.SetTreasury(treasury); err != nil {
		return err
	}
	e.emit(events.TreasuryUpdated{Old: old, New: treasury, Actor: actor, Timestamp: e.now()})
	return nil
}
