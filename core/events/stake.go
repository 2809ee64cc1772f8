package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/types"
)

const (
	// TypeStakeDeposited is emitted when a fixed-unit deposit joins the lock queue.
	TypeStakeDeposited = "stake.deposited"
	// TypeStakeWithdrawn is emitted when a matured deposit leaves the queue.
	TypeStakeWithdrawn = "stake.withdrawn"

	// StakeOperationWithdraw identifies a single-entry withdrawal.
	StakeOperationWithdraw = "withdraw"
	// StakeOperationBatchWithdraw identifies a batch withdrawal sweep.
	StakeOperationBatchWithdraw = "batchWithdraw"
)

// StakeDeposited captures a new time-locked deposit.
type StakeDeposited struct {
	Owner    common.Address
	Amount   *big.Int
	StakedAt int64
	Total    *big.Int
}

// EventType satisfies the Event interface.
func (StakeDeposited) EventType() string { return TypeStakeDeposited }

// Event converts the structured payload into a broadcastable event.
func (e StakeDeposited) Event() *types.Event {
	attrs := map[string]string{
		"owner":    formatAddress(e.Owner),
		"amount":   formatAmount(e.Amount),
		"stakedAt": strconv.FormatInt(e.StakedAt, 10),
	}
	if e.Total != nil {
		attrs["total"] = e.Total.String()
	}
	return &types.Event{Type: TypeStakeDeposited, Attributes: attrs}
}

// StakeWithdrawn captures one matured deposit returned to its owner.
type StakeWithdrawn struct {
	Owner     common.Address
	Amount    *big.Int
	StakedAt  int64
	Operation string
}

// EventType satisfies the Event interface.
func (StakeWithdrawn) EventType() string { return TypeStakeWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e StakeWithdrawn) Event() *types.Event {
	attrs := map[string]string{
		"owner":    formatAddress(e.Owner),
		"amount":   formatAmount(e.Amount),
		"stakedAt": strconv.FormatInt(e.StakedAt, 10),
	}
	if op := strings.TrimSpace(e.Operation); op != "" {
		attrs["operation"] = op
	}
	return &types.Event{Type: TypeStakeWithdrawn, Attributes: attrs}
}
