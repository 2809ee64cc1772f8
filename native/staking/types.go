package staking

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PauseModule names the pause toggle guarding stake mutations.
const PauseModule = "staking"

// VaultAddress is the module account holding all bonded deposits. Derived
// from a fixed label so it can never collide with a user key.
var VaultAddress = common.BytesToAddress(ethcrypto.Keccak256([]byte("hatchnet/staking/vault"))[12:])

var (
	// ErrInvalidAmount covers nil, zero, and negative deposit amounts.
	ErrInvalidAmount = errors.New("staking: amount must be positive")
	// ErrNotUnitMultiple indicates the deposit is not a whole number of
	// stake units.
	ErrNotUnitMultiple = errors.New("staking: amount must be a multiple of the stake unit")
	// ErrStakeCapExceeded indicates the deposit would push the account over
	// its cumulative stake cap.
	ErrStakeCapExceeded = errors.New("staking: account stake cap exceeded")
	// ErrNoStakes indicates the account has no queued deposits.
	ErrNoStakes = errors.New("staking: no stakes found")
	// ErrLockNotExpired indicates the oldest deposit is still inside its
	// lock period.
	ErrLockNotExpired = errors.New("staking: lock period not expired")
	// ErrNothingMatured indicates a batch withdrawal found no matured
	// deposits.
	ErrNothingMatured = errors.New("staking: no matured stakes")
	// ErrPaused indicates the staking pause toggle is enabled.
	ErrPaused = errors.New("staking: module paused")
	// ErrReentrancy indicates a nested call into a guarded operation.
	ErrReentrancy = errors.New("staking: reentrant call")
	// ErrNotConfigured indicates staking parameters are missing from state.
	ErrNotConfigured = errors.New("staking: not configured")
)

// Config holds the staking parameters persisted in state.
type Config struct {
	// StakeUnit is the fixed deposit granularity.
	StakeUnit *big.Int
	// MaxStakePerAccount caps an account's cumulative bonded amount.
	MaxStakePerAccount *big.Int
	// LockPeriod is the per-deposit lock in seconds.
	LockPeriod int64
}

// Validate checks the parameter invariants.
func (c Config) Validate() error {
	if c.StakeUnit == nil || c.StakeUnit.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if c.MaxStakePerAccount == nil || c.MaxStakePerAccount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if c.LockPeriod <= 0 {
		return ErrNotConfigured
	}
	return nil
}

// Entry is one fixed-unit, time-locked deposit. The queue per account is
// strictly FIFO: the oldest entry is always at index 0 and is the only one
// eligible for withdrawal.
type Entry struct {
	Amount   *big.Int
	StakedAt int64
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	return Entry{Amount: amount, StakedAt: e.StakedAt}
}

// Matured reports whether the deposit's lock period has elapsed.
func (e Entry) Matured(now, lockPeriod int64) bool {
	return now >= e.StakedAt+lockPeriod
}

// TotalStaked sums the queued deposit amounts.
func TotalStaked(entries []Entry) *big.Int {
	total := big.NewInt(0)
	for _, entry := range entries {
		if entry.Amount != nil {
			total.Add(total, entry.Amount)
		}
	}
	return total
}
