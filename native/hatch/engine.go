package hatch

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/events"
	"hatchnet/observability/metrics"
)

type engineState interface {
	Owner() (common.Address, error)
	HatchConfig() (Config, bool, error)
	SetHatchConfig(Config) error
	TotalClaimed(common.Address) (*big.Int, error)
	SetTotalClaimed(common.Address, *big.Int) error
	UnlockEntries(common.Address) ([]UnlockEntry, error)
	AppendUnlockEntry(common.Address, UnlockEntry) error
	IsOperator(common.Address) (bool, error)
	SetOperator(common.Address, bool) error
	Balance(symbol string, addr common.Address) (*big.Int, error)
	SetBalance(symbol string, addr common.Address, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	SetTokenSupply(symbol string, amount *big.Int) error
	Paused(module string) (bool, error)
	SetPaused(module string, paused bool) error
}

// Engine implements the claim, vesting, and transfer-guard state machine for
// the capped-supply token. Every public operation validates fully before
// mutating state and runs under a reentrancy guard.
//
// Engine is not safe for concurrent use.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	entered bool
}

// NewEngine creates a hatch engine with a no-op emitter. Callers wire state
// and emitter via the Set* methods.
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

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
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
		return fmt.Errorf("hatch engine: state not configured")
	}
	return nil
}

func (e *Engine) config() (Config, error) {
	cfg, ok, err := e.state.HatchConfig()
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, ErrNotConfigured
	}
	return cfg, nil
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

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Configure installs the initial claim/vesting configuration. Used by
// genesis bootstrap.
func (e *Engine) Configure(cfg Config) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return e.state.SetHatchConfig(cfg)
}

// BalanceOf returns the token balance of the address.
func (e *Engine) BalanceOf(addr common.Address) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.state.Balance(TokenSymbol, addr)
}

// LockedBalanceOf returns the portion of the balance still vesting as of the
// current timestamp.
func (e *Engine) LockedBalanceOf(addr common.Address) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	entries, err := e.state.UnlockEntries(addr)
	if err != nil {
		return nil, err
	}
	return LockedAmount(entries, e.now()), nil
}

// UnlockedBalanceOf returns the transferable portion of the balance.
func (e *Engine) UnlockedBalanceOf(addr common.Address) (*big.Int, error) {
	balance, err := e.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	locked, err := e.LockedBalanceOf(addr)
	if err != nil {
		return nil, err
	}
	unlocked := new(big.Int).Sub(balance, locked)
	if unlocked.Sign() < 0 {
		unlocked.SetInt64(0)
	}
	return unlocked, nil
}

// TotalClaimedOf returns the cumulative claimed amount for the claimant.
func (e *Engine) TotalClaimedOf(addr common.Address) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.state.TotalClaimed(addr)
}

// Claim verifies the allocation proof and mints the unclaimed remainder to
// the claimant, recording a new vesting entry. All checks run before any
// state write; the mint itself is the final step.
func (e *Engine) Claim(claimant common.Address, totalAllocation *big.Int, proof []common.Hash) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if claimant == (common.Address{}) || totalAllocation == nil || totalAllocation.Sign() < 0 || totalAllocation.BitLen() > 256 {
		return ErrInvalidInput
	}
	paused, err := e.state.Paused(PauseModule)
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}

	claimed, err := e.state.TotalClaimed(claimant)
	if err != nil {
		return err
	}
	if totalAllocation.Cmp(claimed) < 0 {
		return ErrStaleAllocation
	}
	remaining := new(big.Int).Sub(totalAllocation, claimed)

	if !VerifyAllocation(cfg.MerkleRoot, claimant, totalAllocation, proof) {
		return ErrInvalidProof
	}
	if remaining.Sign() == 0 {
		return ErrNothingToClaim
	}

	now := e.now()
	cycle, err := e.checkMintHeadroom(cfg, remaining, now)
	if err != nil {
		return err
	}

	unlockTime := now + cfg.UnlockDelay
	if err := e.state.AppendUnlockEntry(claimant, UnlockEntry{Amount: cloneBigInt(remaining), UnlockTime: unlockTime}); err != nil {
		return err
	}
	if err := e.state.SetTotalClaimed(claimant, cloneBigInt(totalAllocation)); err != nil {
		return err
	}
	total, err := e.mint(claimant, remaining)
	if err != nil {
		return err
	}

	metrics.Hatch().ClaimProcessed(remaining)
	metrics.Hatch().SupplyChanged(TokenSymbol, total)
	e.emit(events.HatchClaimed{
		Claimant:     claimant,
		Amount:       cloneBigInt(remaining),
		TotalClaimed: cloneBigInt(totalAllocation),
		Cycle:        cycle,
		UnlockTime:   unlockTime,
	})
	e.emit(events.TokenSupply{
		Token:  TokenSymbol,
		Total:  total,
		Delta:  cloneBigInt(remaining),
		Reason: events.SupplyReasonClaim,
	})
	return nil
}

// Mint performs an owner-directed mint bound by the same supply and cycle
// caps as claims. Minted tokens are immediately transferable.
func (e *Engine) Mint(actor, recipient common.Address, amount *big.Int) error {
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
	if recipient == (common.Address{}) || amount == nil || amount.Sign() <= 0 {
		return ErrInvalidInput
	}
	paused, err := e.state.Paused(PauseModule)
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	now := e.now()
	cycle, err := e.checkMintHeadroom(cfg, amount, now)
	if err != nil {
		return err
	}
	total, err := e.mint(recipient, amount)
	if err != nil {
		return err
	}
	metrics.Hatch().SupplyChanged(TokenSymbol, total)
	e.emit(events.HatchMinted{Recipient: recipient, Amount: cloneBigInt(amount), Actor: actor, Cycle: cycle})
	e.emit(events.TokenSupply{Token: TokenSymbol, Total: total, Delta: cloneBigInt(amount), Reason: events.SupplyReasonMint})
	return nil
}

// checkMintHeadroom validates both the global cap and the cumulative cycle
// allowance against the prospective mint and returns the current cycle.
func (e *Engine) checkMintHeadroom(cfg Config, amount *big.Int, now int64) (uint64, error) {
	supply, err := e.state.TokenSupply(TokenSymbol)
	if err != nil {
		return 0, err
	}
	prospective := new(big.Int).Add(supply, amount)
	if prospective.Cmp(TotalSupplyCap()) > 0 {
		return 0, ErrSupplyCapExceeded
	}
	allowed, err := cfg.Cycle.TotalAllowedMint(now, TotalSupplyCap())
	if err != nil {
		return 0, err
	}
	if prospective.Cmp(allowed) > 0 {
		return 0, ErrSupplyCapExceeded
	}
	return cfg.Cycle.CurrentCycle(now)
}

// mint credits the recipient and bumps total supply, returning the new total.
func (e *Engine) mint(recipient common.Address, amount *big.Int) (*big.Int, error) {
	balance, err := e.state.Balance(TokenSymbol, recipient)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetBalance(TokenSymbol, recipient, new(big.Int).Add(balance, amount)); err != nil {
		return nil, err
	}
	supply, err := e.state.TokenSupply(TokenSymbol)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(supply, amount)
	if err := e.state.SetTokenSupply(TokenSymbol, total); err != nil {
		return nil, err
	}
	return total, nil
}

// Transfer moves tokens between accounts subject to the vesting lock guard.
// The guard is skipped when the sender is the zero address (mint origin) or
// either side is an allowed operator; otherwise the amount must fit within
// the sender's unlocked balance as of the current timestamp.
func (e *Engine) Transfer(from, to common.Address, amount *big.Int) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if to == (common.Address{}) || amount == nil || amount.Sign() <= 0 {
		return ErrInvalidInput
	}

	balance, err := e.state.Balance(TokenSymbol, from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	guarded := from != (common.Address{})
	if guarded {
		fromOperator, err := e.state.IsOperator(from)
		if err != nil {
			return err
		}
		toOperator, err := e.state.IsOperator(to)
		if err != nil {
			return err
		}
		guarded = !fromOperator && !toOperator
	}
	if guarded {
		entries, err := e.state.UnlockEntries(from)
		if err != nil {
			return err
		}
		locked := LockedAmount(entries, e.now())
		unlocked := new(big.Int).Sub(balance, locked)
		if amount.Cmp(unlocked) > 0 {
			return ErrTransferExceedsUnlocked
		}
	}

	if err := e.state.SetBalance(TokenSymbol, from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	recipientBalance, err := e.state.Balance(TokenSymbol, to)
	if err != nil {
		return err
	}
	if err := e.state.SetBalance(TokenSymbol, to, new(big.Int).Add(recipientBalance, amount)); err != nil {
		return err
	}
	e.emit(events.TokenTransferred{Token: TokenSymbol, From: from, To: to, Amount: cloneBigInt(amount)})
	return nil
}

// UpdateMerkleRoot replaces the allocation commitment. Owner only.
func (e *Engine) UpdateMerkleRoot(actor common.Address, root common.Hash) error {
	return e.updateConfig(actor, "merkleRoot", func(cfg *Config) (string, string, error) {
		if root == (common.Hash{}) {
			return "", "", ErrInvalidInput
		}
		old := cfg.MerkleRoot.Hex()
		cfg.MerkleRoot = root
		return old, root.Hex(), nil
	})
}

// UpdateTokenUnlockTime replaces the vesting delay applied to future claims.
// Owner only.
func (e *Engine) UpdateTokenUnlockTime(actor common.Address, seconds int64) error {
	return e.updateConfig(actor, "tokenUnlockTime", func(cfg *Config) (string, string, error) {
		if seconds < 0 {
			return "", "", ErrInvalidInput
		}
		old := strconv.FormatInt(cfg.UnlockDelay, 10)
		cfg.UnlockDelay = seconds
		return old, strconv.FormatInt(seconds, 10), nil
	})
}

// UpdateCycleMintBps replaces the per-cycle mint allowance. Bounded to
// 1..MaxCycleMintBps. Owner only.
func (e *Engine) UpdateCycleMintBps(actor common.Address, bps uint32) error {
	return e.updateConfig(actor, "cycleMintBps", func(cfg *Config) (string, string, error) {
		if bps == 0 || bps > MaxCycleMintBps {
			return "", "", ErrInvalidInput
		}
		old := strconv.FormatUint(uint64(cfg.Cycle.CycleMintBps), 10)
		cfg.Cycle.CycleMintBps = bps
		return old, strconv.FormatUint(uint64(bps), 10), nil
	})
}

// UpdateCycleDuration replaces the cycle length. Owner only.
func (e *Engine) UpdateCycleDuration(actor common.Address, seconds int64) error {
	return e.updateConfig(actor, "cycleDuration", func(cfg *Config) (string, string, error) {
		if seconds <= 0 {
			return "", "", ErrInvalidInput
		}
		old := strconv.FormatInt(cfg.Cycle.CycleDuration, 10)
		cfg.Cycle.CycleDuration = seconds
		return old, strconv.FormatInt(seconds, 10), nil
	})
}

func (e *Engine) updateConfig(actor common.Address, param string, mutate func(*Config) (string, string, error)) error {
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
	cfg, err := e.config()
	if err != nil {
		return err
	}
	old, updated, err := mutate(&cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.state.SetHatchConfig(cfg); err != nil {
		return err
	}
	e.emit(events.HatchParamUpdated{Param: param, Old: old, New: updated, Actor: actor, Timestamp: e.now()})
	return nil
}

// SetAllowedOperator toggles an address on the transfer-guard allow-list.
// Owner only.
func (e *Engine) SetAllowedOperator(actor, operator common.Address, allowed bool) error {
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
	if operator == (common.Address{}) {
		return ErrInvalidInput
	}
	if err := e.state.SetOperator(operator, allowed); err != nil {
		return err
	}
	e.emit(events.HatchOperatorUpdated{Operator: operator, Allowed: allowed, Actor: actor, Timestamp: e.now()})
	return nil
}

// Pause blocks claim and mint paths. View reads remain available. Owner only.
func (e *Engine) Pause(actor common.Address) error {
	return e.setPaused(actor, true)
}

// Unpause re-enables claim and mint paths. Owner only.
func (e *Engine) Unpause(actor common.Address) error {
	return e.setPaused(actor, false)
}

func (e *Engine) setPaused(actor common.Address, paused bool) error {
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
	if err := e.state.SetPaused(PauseModule, paused); err != nil {
		return err
	}
	e.emit(events.SystemPauseChanged{Module: PauseModule, Paused: paused, Actor: actor, Timestamp: e.now()})
	return nil
}
