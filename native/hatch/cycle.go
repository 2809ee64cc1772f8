package hatch

import "math/big"

// CycleConfig bounds cumulative minting by time bucket. The allowance is
// cumulative: unused headroom from earlier cycles carries forward.
type CycleConfig struct {
	// MintStart is the unix timestamp at which cycle 1 begins.
	MintStart int64
	// CycleDuration is the cycle length in seconds.
	CycleDuration int64
	// CycleMintBps is the per-cycle allowance as basis points of the total
	// supply cap.
	CycleMintBps uint32
}

// Validate checks the cycle parameter bounds.
func (c CycleConfig) Validate() error {
	if c.MintStart <= 0 {
		return ErrInvalidInput
	}
	if c.CycleDuration <= 0 {
		return ErrInvalidInput
	}
	if c.CycleMintBps == 0 || c.CycleMintBps > MaxCycleMintBps {
		return ErrInvalidInput
	}
	return nil
}

// CurrentCycle returns the 1-based cycle index at the given time. The first
// cycle starts immediately at MintStart; there is no cycle 0.
func (c CycleConfig) CurrentCycle(now int64) (uint64, error) {
	if c.CycleDuration <= 0 {
		return 0, ErrInvalidInput
	}
	if now < c.MintStart {
		return 0, ErrInvalidInput
	}
	return uint64((now-c.MintStart)/c.CycleDuration) + 1, nil
}

// CycleMintCap returns the per-cycle mint allowance derived from the supply
// cap.
func (c CycleConfig) CycleMintCap(supplyCap *big.Int) *big.Int {
	cap := new(big.Int).Mul(supplyCap, big.NewInt(int64(c.CycleMintBps)))
	return cap.Div(cap, big.NewInt(BpsDenominator))
}

// TotalAllowedMint returns the cumulative tokens allowed to have been minted
// as of now. Evaluated fresh on every call with the current parameters; past
// cycles are never recomputed retroactively.
func (c CycleConfig) TotalAllowedMint(now int64, supplyCap *big.Int) (*big.Int, error) {
	cycle, err := c.CurrentCycle(now)
	if err != nil {
		return nil, err
	}
	allowed := c.CycleMintCap(supplyCap)
	return allowed.Mul(allowed, new(big.Int).SetUint64(cycle)), nil
}
