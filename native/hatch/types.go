package hatch

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSymbol identifies the capped-supply token on the ledger.
const TokenSymbol = "HATCH"

// TokenDecimals is the fixed-point precision of token amounts.
const TokenDecimals = 18

// PauseModule names the pause toggle guarding claim and mint paths.
const PauseModule = "hatch"

const (
	// BpsDenominator converts basis points into fractions.
	BpsDenominator = 10_000
	// MaxCycleMintBps caps the per-cycle mint allowance at 5% of total supply.
	MaxCycleMintBps = 500
)

// TotalSupplyCap returns the hard supply ceiling: one billion whole tokens.
func TotalSupplyCap() *big.Int {
	return new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1e18))
}

// Config holds the claim/vesting parameters persisted in state.
type Config struct {
	// MerkleRoot commits to the full set of (claimant, total allocation)
	// pairs.
	MerkleRoot common.Hash
	// UnlockDelay is the vesting delay in seconds applied to every claim.
	UnlockDelay int64
	// Cycle bounds cumulative minting over time.
	Cycle CycleConfig
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.MerkleRoot == (common.Hash{}) {
		return ErrInvalidInput
	}
	if c.UnlockDelay < 0 {
		return ErrInvalidInput
	}
	return c.Cycle.Validate()
}

// UnlockEntry is a claimed-but-time-locked amount. Entries are append-only:
// they are never merged, mutated, or deleted, and stop counting toward the
// locked balance exactly at UnlockTime.
type UnlockEntry struct {
	Amount     *big.Int
	UnlockTime int64
}

// Locked reports whether the entry still contributes to the locked balance.
func (e UnlockEntry) Locked(now int64) bool {
	return now < e.UnlockTime
}

// Clone returns a deep copy of the entry.
func (e UnlockEntry) Clone() UnlockEntry {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	return UnlockEntry{Amount: amount, UnlockTime: e.UnlockTime}
}

// LockedAmount sums the entries that are still locked at the given time.
func LockedAmount(entries []UnlockEntry, now int64) *big.Int {
	locked := big.NewInt(0)
	for _, entry := range entries {
		if entry.Amount == nil {
			continue
		}
		if entry.Locked(now) {
			locked.Add(locked, entry.Amount)
		}
	}
	return locked
}
