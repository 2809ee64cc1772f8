package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/types"
)

const (
	// TypeTokenSupply is emitted whenever a token supply changes.
	TypeTokenSupply = "token.supply"
	// TypeTokenTransferred is emitted on every guarded balance movement.
	TypeTokenTransferred = "token.transferred"

	// SupplyReasonClaim identifies claim driven supply increases.
	SupplyReasonClaim = "claim"
	// SupplyReasonMint identifies direct owner mints.
	SupplyReasonMint = "mint"
)

// TokenSupply captures a supply delta for a fungible token.
type TokenSupply struct {
	Token  string
	Total  *big.Int
	Delta  *big.Int
	Reason string
}

// EventType satisfies the Event interface.
func (TokenSupply) EventType() string { return TypeTokenSupply }

// Event renders the structured supply change for downstream consumers.
func (e TokenSupply) Event() *types.Event {
	attrs := map[string]string{}
	token := strings.ToUpper(strings.TrimSpace(e.Token))
	if token == "" {
		token = "UNKNOWN"
	}
	attrs["token"] = token
	attrs["total"] = formatAmount(e.Total)
	if e.Delta != nil {
		attrs["delta"] = e.Delta.String()
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		attrs["reason"] = reason
	}
	return &types.Event{Type: TypeTokenSupply, Attributes: attrs}
}

// TokenTransferred captures a balance movement between two accounts.
type TokenTransferred struct {
	Token  string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// EventType satisfies the Event interface.
func (TokenTransferred) EventType() string { return TypeTokenTransferred }

// Event renders the transfer for downstream consumers.
func (e TokenTransferred) Event() *types.Event {
	attrs := map[string]string{
		"token":  strings.ToUpper(strings.TrimSpace(e.Token)),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}
	if !zeroAddress(e.From) {
		attrs["from"] = formatAddress(e.From)
	}
	return &types.Event{Type: TypeTokenTransferred, Attributes: attrs}
}
