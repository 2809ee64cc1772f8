package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/types"
)

const (
	// TypeHatchClaimed is emitted whenever a merkle-gated allocation claim mints tokens.
	TypeHatchClaimed = "hatch.claimed"
	// TypeHatchMinted is emitted when the owner mints directly, outside the claim path.
	TypeHatchMinted = "hatch.minted"
	// TypeHatchParamUpdated captures an admin parameter change with before/after values.
	TypeHatchParamUpdated = "hatch.paramUpdated"
	// TypeHatchOperatorUpdated captures a change to the transfer-guard operator allow-list.
	TypeHatchOperatorUpdated = "hatch.operatorUpdated"
	// TypeSystemPaused is emitted when a module pause toggle flips on.
	TypeSystemPaused = "system.paused"
	// TypeSystemUnpaused is emitted when a module pause toggle flips off.
	TypeSystemUnpaused = "system.unpaused"
)

// HatchClaimed captures a successful allocation claim.
type HatchClaimed struct {
	Claimant     common.Address
	Amount       *big.Int
	TotalClaimed *big.Int
	Cycle        uint64
	UnlockTime   int64
}

// EventType satisfies the Event interface.
func (HatchClaimed) EventType() string { return TypeHatchClaimed }

// Event converts the structured payload into a broadcastable event.
func (e HatchClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeHatchClaimed,
		Attributes: map[string]string{
			"claimant":     formatAddress(e.Claimant),
			"amount":       formatAmount(e.Amount),
			"totalClaimed": formatAmount(e.TotalClaimed),
			"cycle":        strconv.FormatUint(e.Cycle, 10),
			"unlockTime":   strconv.FormatInt(e.UnlockTime, 10),
		},
	}
}

// HatchMinted captures an owner-directed mint.
type HatchMinted struct {
	Recipient common.Address
	Amount    *big.Int
	Actor     common.Address
	Cycle     uint64
}

// EventType satisfies the Event interface.
func (HatchMinted) EventType() string { return TypeHatchMinted }

// Event converts the structured payload into a broadcastable event.
func (e HatchMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeHatchMinted,
		Attributes: map[string]string{
			"recipient": formatAddress(e.Recipient),
			"amount":    formatAmount(e.Amount),
			"actor":     formatAddress(e.Actor),
			"cycle":     strconv.FormatUint(e.Cycle, 10),
		},
	}
}

// HatchParamUpdated records an admin parameter mutation with the old and new
// values, the acting owner, and the ledger timestamp.
type HatchParamUpdated struct {
	Param     string
	Old       string
	New       string
	Actor     common.Address
	Timestamp int64
}

// EventType satisfies the Event interface.
func (HatchParamUpdated) EventType() string { return TypeHatchParamUpdated }

// Event converts the structured payload into a broadcastable event.
func (e HatchParamUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeHatchParamUpdated,
		Attributes: map[string]string{
			"param":     strings.TrimSpace(e.Param),
			"old":       e.Old,
			"new":       e.New,
			"actor":     formatAddress(e.Actor),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// HatchOperatorUpdated records an operator allow-list change.
type HatchOperatorUpdated struct {
	Operator  common.Address
	Allowed   bool
	Actor     common.Address
	Timestamp int64
}

// EventType satisfies the Event interface.
func (HatchOperatorUpdated) EventType() string { return TypeHatchOperatorUpdated }

// Event converts the structured payload into a broadcastable event.
func (e HatchOperatorUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeHatchOperatorUpdated,
		Attributes: map[string]string{
			"operator":  formatAddress(e.Operator),
			"allowed":   strconv.FormatBool(e.Allowed),
			"actor":     formatAddress(e.Actor),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// SystemPauseChanged records a module pause toggle flip.
type SystemPauseChanged struct {
	Module    string
	Paused    bool
	Actor     common.Address
	Timestamp int64
}

// EventType satisfies the Event interface.
func (e SystemPauseChanged) EventType() string {
	if e.Paused {
		return TypeSystemPaused
	}
	return TypeSystemUnpaused
}

// Event converts the structured payload into a broadcastable event.
func (e SystemPauseChanged) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"module":    strings.TrimSpace(e.Module),
			"actor":     formatAddress(e.Actor),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
