package domain

import "github.com/shopspring/decimal"

// EventKind partitions ledger events into the three facts the exchange
// contract emits over an order's life.
type EventKind string

const (
	KindOrder  EventKind = "Order"
	KindCancel EventKind = "Cancel"
	KindTrade  EventKind = "Trade"
)

// RawEvent is one immutable fact from the ledger. It is never mutated or
// deleted after ingest; all views are recomputed from these records.
// Amounts are integers in the asset's smallest unit, carried as decimals
// because EVM token amounts overflow int64.
type RawEvent struct {
	Kind      EventKind       `json:"kind"`
	ID        uint64          `json:"id"` // order id; Cancel/Trade reference an existing one
	Maker     string          `json:"maker"`
	Taker     string          `json:"taker,omitempty"` // Trade only
	GiveAsset string          `json:"give_asset"`
	GiveAmt   decimal.Decimal `json:"give_amount"`
	GetAsset  string          `json:"get_asset"`
	GetAmt    decimal.Decimal `json:"get_amount"`
	Timestamp int64           `json:"timestamp"` // unix seconds, ledger-assigned

	// Block is the ledger block that emitted the event; zero for records
	// delivered over the relay, which carries no chain position.
	Block uint64 `json:"block,omitempty"`
}

// Involves reports whether the account appears on either side of the event.
func (e *RawEvent) Involves(account string) bool {
	return e.Maker == account || e.Taker == account
}
