package amm

import (
	"encoding/hex"
	"strconv"

	"nftamm/core/types"
)

const (
	EventTypeFulfilled        = "amm.fulfilled"
	EventTypePoolClosed       = "amm.pool.closed"
	EventTypeEscrowClosed     = "amm.escrow.closed"
	EventTypeSpotPriceChanged = "amm.spot_price.changed"
	EventTypeWithdrawal       = "amm.withdrawal"
)

type ammEvent struct {
	evt *types.Event
}

func (e ammEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ammEvent) Event() *types.Event { return e.evt }

// NewFulfilledEvent returns the canonical payload for a settled fulfillment.
func NewFulfilledEvent(pool [20]byte, seller [20]byte, mint [32]byte, amount uint64, receipt *FulfillReceipt, paymentAmount, lpFee, referralFee, nextSpotPrice uint64) *types.Event {
	attrs := map[string]string{
		"pool":          hex.EncodeToString(pool[:]),
		"seller":        hex.EncodeToString(seller[:]),
		"assetMint":     hex.EncodeToString(mint[:]),
		"assetAmount":   strconv.FormatUint(amount, 10),
		"paymentAmount": strconv.FormatUint(paymentAmount, 10),
		"lpFee":         strconv.FormatUint(lpFee, 10),
		"referralFee":   strconv.FormatUint(referralFee, 10),
		"nextSpotPrice": strconv.FormatUint(nextSpotPrice, 10),
	}
	if receipt != nil {
		attrs["totalPrice"] = strconv.FormatUint(receipt.TotalPrice, 10)
		attrs["royaltyPaid"] = strconv.FormatUint(receipt.RoyaltyPaid, 10)
	}
	return &types.Event{Type: EventTypeFulfilled, Attributes: attrs}
}

// NewPoolClosedEvent returns the payload emitted when a depleted pool is
// reclaimed.
func NewPoolClosedEvent(pool [20]byte, owner [20]byte, reclaimed uint64) *types.Event {
	return &types.Event{Type: EventTypePoolClosed, Attributes: map[string]string{
		"pool":      hex.EncodeToString(pool[:]),
		"owner":     hex.EncodeToString(owner[:]),
		"reclaimed": strconv.FormatUint(reclaimed, 10),
	}}
}

// NewEscrowClosedEvent returns the payload emitted when an emptied asset
// escrow is closed and its deposit refunded.
func NewEscrowClosedEvent(pool [20]byte, mint [32]byte, destination [20]byte) *types.Event {
	return &types.Event{Type: EventTypeEscrowClosed, Attributes: map[string]string{
		"pool":        hex.EncodeToString(pool[:]),
		"assetMint":   hex.EncodeToString(mint[:]),
		"destination": hex.EncodeToString(destination[:]),
	}}
}

// NewSpotPriceChangedEvent returns the payload for an owner-driven quote
// change.
func NewSpotPriceChangedEvent(pool [20]byte, oldPrice, newPrice uint64) *types.Event {
	return &types.Event{Type: EventTypeSpotPriceChanged, Attributes: map[string]string{
		"pool":     hex.EncodeToString(pool[:]),
		"oldPrice": strconv.FormatUint(oldPrice, 10),
		"newPrice": strconv.FormatUint(newPrice, 10),
	}}
}

// NewWithdrawalEvent returns the payload for an owner withdrawal of sellside
// inventory.
func NewWithdrawalEvent(pool [20]byte, mint [32]byte, amount uint64) *types.Event {
	return &types.Event{Type: EventTypeWithdrawal, Attributes: map[string]string{
		"pool":        hex.EncodeToString(pool[:]),
		"assetMint":   hex.EncodeToString(mint[:]),
		"assetAmount": strconv.FormatUint(amount, 10),
	}}
}
