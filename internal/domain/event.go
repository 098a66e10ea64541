package domain

import "time"

// Event types recorded by the engine.
const (
	EventTradeOpened         = "trade.opened"
	EventTradeExecuted       = "trade.executed"
	EventTradeClosed         = "trade.closed"
	EventTradePriceChanged   = "trade.price_changed"
	EventWithdrawalCompleted = "withdrawal.completed"
)

// Event is one entry in the engine's append-only event log. Fields that
// do not apply to a given event type are left zero: only trade.executed
// carries Buyer and Recipient, and withdrawal.completed uses Recipient
// for the payout destination.
type Event struct {
	EventID   string
	Type      string
	Asset     Address
	UnitID    int64
	Seller    Address
	Buyer     Address
	Recipient Address
	Amount    int64
	Price     int64
	At        time.Time
}
