package domain

import "time"

// TradeKey uniquely identifies an open trade. A seller may hold at most
// one open trade per (asset, unit) pair.
type TradeKey struct {
	Asset  Address
	UnitID int64
	Seller Address
}

// Trade is an open offer to sell a bounded quantity of an asset unit at a
// fixed unit price. A trade is open exactly while its record exists in the
// trade store; closing or exhausting it deletes the record, so a zero-priced
// open offer is distinguishable from a trade that was never opened.
type Trade struct {
	Price     int64 // base value units per asset unit
	Remaining int64 // asset units still held in escrow
	OpenedAt  time.Time
}
