package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/types"
)

const (
	// TypeProductAdded is emitted when a catalog entry is created.
	TypeProductAdded = "store.productAdded"
	// TypeProductUpdated is emitted when a catalog entry is repriced.
	TypeProductUpdated = "store.productUpdated"
	// TypeProductDeleted is emitted when a catalog entry is removed.
	TypeProductDeleted = "store.productDeleted"
	// TypeProductPurchased is emitted on a completed purchase.
	TypeProductPurchased = "store.purchased"
	// TypeTreasuryUpdated is emitted when the payment treasury changes.
	TypeTreasuryUpdated = "store.treasuryUpdated"
)

// ProductChanged captures catalog mutations for a single product.
type ProductChanged struct {
	Kind      string // one of the TypeProduct* constants
	ProductID string
	Price     *big.Int
	OldPrice  *big.Int
	Actor     common.Address
	Timestamp int64
}

// EventType satisfies the Event interface.
func (e ProductChanged) EventType() string { return e.Kind }

// Event converts the structured payload into a broadcastable event.
func (e ProductChanged) Event() *types.Event {
	attrs := map[string]string{
		"productId": strings.TrimSpace(e.ProductID),
		"actor":     formatAddress(e.Actor),
		"timestamp": strconv.FormatInt(e.Timestamp, 10),
	}
	if e.Price != nil {
		attrs["price"] = e.Price.String()
	}
	if e.OldPrice != nil {
		attrs["oldPrice"] = e.OldPrice.String()
	}
	return &types.Event{Type: e.Kind, Attributes: attrs}
}

// ProductPurchased captures a completed catalog purchase.
type ProductPurchased struct {
	ReceiptID string
	Buyer     common.Address
	Player    common.Address
	ProductID string
	Price     *big.Int
	Timestamp int64
}

// EventType satisfies the Event interface.
func (ProductPurchased) EventType() string { return TypeProductPurchased }

// Event converts the structured payload into a broadcastable event.
func (e ProductPurchased) Event() *types.Event {
	return &types.Event{
		Type: TypeProductPurchased,
		Attributes: map[string]string{
			"receiptId": e.ReceiptID,
			"buyer":     formatAddress(e.Buyer),
			"player":    formatAddress(e.Player),
			"productId": strings.TrimSpace(e.ProductID),
			"price":     formatAmount(e.Price),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// TreasuryUpdated captures a change to the purchase settlement treasury.
type TreasuryUpdated struct {
	Old       common.Address
	New       common.Address
	Actor     common.Address
	Timestamp int64
}

// EventType satisfies the Event interface.
func (TreasuryUpdated) EventType() string { return TypeTreasuryUpdated }

// Event converts the structured payload into a broadcastable event.
func (e TreasuryUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeTreasuryUpdated,
		Attributes: map[string]string{
			"old":       formatAddress(e.Old),
			"new":       formatAddress(e.New),
			"actor":     formatAddress(e.Actor),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
