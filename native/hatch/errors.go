package hatch

import "errors"

var (
	// ErrInvalidInput covers zero addresses, nil or non-positive amounts, and
	// out-of-range configuration values.
	ErrInvalidInput = errors.New("hatch: invalid input")
	// ErrInvalidProof indicates the merkle proof does not bind the claimant
	// and allocation to the configured root.
	ErrInvalidProof = errors.New("hatch: invalid allocation proof")
	// ErrStaleAllocation indicates the submitted total allocation is below
	// the amount already claimed.
	ErrStaleAllocation = errors.New("hatch: allocation below claimed total")
	// ErrNothingToClaim indicates the allocation has been fully claimed.
	ErrNothingToClaim = errors.New("hatch: nothing to claim")
	// ErrSupplyCapExceeded indicates a mint would breach the total supply cap
	// or the cumulative cycle allowance.
	ErrSupplyCapExceeded = errors.New("hatch: supply cap exceeded")
	// ErrTransferExceedsUnlocked indicates a transfer would move more than
	// the sender's unlocked balance.
	ErrTransferExceedsUnlocked = errors.New("hatch: transfer exceeds unlocked balance")
	// ErrInsufficientBalance indicates the sender balance cannot cover the
	// transfer amount.
	ErrInsufficientBalance = errors.New("hatch: insufficient balance")
	// ErrNotAuthorized indicates the caller is not the configured owner.
	ErrNotAuthorized = errors.New("hatch: not authorized")
	// ErrPaused indicates the module pause toggle is enabled.
	ErrPaused = errors.New("hatch: module paused")
	// ErrReentrancy indicates a nested call into a guarded operation.
	ErrReentrancy = errors.New("hatch: reentrant call")
	// ErrNotConfigured indicates the engine state has no hatch configuration.
	ErrNotConfigured = errors.New("hatch: not configured")
)
