package staking

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/events"
	"hatchnet/observability/metrics"
)

// TokenLedger is the capability the staking pool holds on the token: every
// deposit and payout moves through the guarded transfer path, so locked
// (still-vesting) tokens cannot be staked.
type TokenLedger interface {
	Transfer(from, to common.Address, amount *big.Int) error
}

type engineState interface {
	StakingConfig() (Config, bool, error)
	StakeEntries(owner common.Address) ([]Entry, error)
	SetStakeEntries(owner common.Address, entries []Entry) error
	Paused(module string) (bool, error)
}

// Engine implements the fixed-unit, time-locked stake queue. Deposits join a
// per-account FIFO queue; withdrawals always settle the oldest entry first.
//
// Engine is not safe for concurrent use.
type Engine struct {
	state   engineState
	token   TokenLedger
	emitter events.Emitter
	nowFn   func() int64
	entered bool
}

// NewEngine creates a staking engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the token ledger deposits settle against.
func (e *Engine) SetToken(token TokenLedger) { e.token = token }

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

func (e *Engine) requireWiring() error {
	if e == nil || e.state == nil {
		return fmt.Errorf("staking engine: state not configured")
	}
	if e.token == nil {
		return fmt.Errorf("staking engine: token ledger not configured")
	}
	return nil
}

func (e *Engine) config() (Config, error) {
	cfg, ok, err := e.state.StakingConfig()
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, ErrNotConfigured
	}
	return cfg, nil
}

func (e *Engine) requireActive() error {
	paused, err := e.state.Paused(PauseModule)
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// StakedBalance returns the account's cumulative bonded amount.
func (e *Engine) StakedBalance(owner common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, fmt.Errorf("staking engine: state not configured")
	}
	entries, err := e.state.StakeEntries(owner)
	if err != nil {
		return nil, err
	}
	return TotalStaked(entries), nil
}

// Stakes returns the account's queue, oldest first.
func (e *Engine) Stakes(owner common.Address) ([]Entry, error) {
	if e == nil || e.state == nil {
		return nil, fmt.Errorf("staking engine: state not configured")
	}
	return e.state.StakeEntries(owner)
}

// Stake bonds a fixed-unit deposit. The amount must be a positive multiple
// of the stake unit and keep the account within its cumulative cap. Tokens
// move owner -> vault through the guarded transfer path before the entry is
// queued.
func (e *Engine) Stake(owner common.Address, amount *big.Int) error {
	if err := e.requireWiring(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if owner == (common.Address{}) || amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.requireActive(); err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if new(big.Int).Mod(amount, cfg.StakeUnit).Sign() != 0 {
		return ErrNotUnitMultiple
	}
	entries, err := e.state.StakeEntries(owner)
	if err != nil {
		return err
	}
	total := TotalStaked(entries)
	if new(big.Int).Add(total, amount).Cmp(cfg.MaxStakePerAccount) > 0 {
		return ErrStakeCapExceeded
	}

	if err := e.token.Transfer(owner, VaultAddress, amount); err != nil {
		return err
	}
	now := e.now()
	entries = append(entries, Entry{Amount: new(big.Int).Set(amount), StakedAt: now})
	if err := e.state.SetStakeEntries(owner, entries); err != nil {
		return err
	}

	metrics.Staking().Deposited(amount)
	e.emit(events.StakeDeposited{
		Owner:    owner,
		Amount:   new(big.Int).Set(amount),
		StakedAt: now,
		Total:    total.Add(total, amount),
	})
	return nil
}

// Withdraw settles the oldest deposit. It fails with ErrLockNotExpired while
// that entry is still inside its lock period; later entries are never
// eligible first.
func (e *Engine) Withdraw(owner common.Address) error {
	if err := e.requireWiring(); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireActive(); err != nil {
		return err
	}
	_, err := e.withdrawOldest(owner, events.StakeOperationWithdraw)
	return err
}

// BatchWithdraw settles matured deposits strictly oldest-to-newest, stopping
// at the first immature entry. After each removal the new head of the queue
// is re-examined. Fails with ErrNothingMatured when no entry was settled.
func (e *Engine) BatchWithdraw(owner common.Address) (int, error) {
	if err := e.requireWiring(); err != nil {
		return 0, err
	}
	if err := e.enter(); err != nil {
		return 0, err
	}
	defer e.exit()
	if err := e.requireActive(); err != nil {
		return 0, err
	}

	withdrawn := 0
	for {
		done, err := e.withdrawOldest(owner, events.StakeOperationBatchWithdraw)
		if err != nil {
			if withdrawn > 0 && (err == ErrLockNotExpired || err == ErrNoStakes) {
				break
			}
			if withdrawn == 0 && (err == ErrLockNotExpired || err == ErrNoStakes) {
				return 0, ErrNothingMatured
			}
			return withdrawn, err
		}
		if done {
			withdrawn++
		}
	}
	return withdrawn, nil
}

// withdrawOldest settles the entry at index 0 if it has matured, shifting
// the remainder of the queue down one slot.
func (e *Engine) withdrawOldest(owner common.Address, operation string) (bool, error) {
	cfg, err := e.config()
	if err != nil {
		return false, err
	}
	entries, err := e.state.StakeEntries(owner)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, ErrNoStakes
	}
	oldest := entries[0]
	now := e.now()
	if !oldest.Matured(now, cfg.LockPeriod) {
		return false, ErrLockNotExpired
	}

	if err := e.token.Transfer(VaultAddress, owner, oldest.Amount); err != nil {
		return false, err
	}
	if err := e.state.SetStakeEntries(owner, entries[1:]); err != nil {
		return false, err
	}

	metrics.Staking().Withdrawn(oldest.Amount)
	e.emit(events.StakeWithdrawn{
		Owner:     owner,
		Amount:    new(big.Int).Set(oldest.Amount),
		StakedAt:  oldest.StakedAt,
		Operation: operation,
	})
	return true, nil
}
