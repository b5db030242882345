package domain

import "github.com/shopspring/decimal"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Momentum classifies a trade's price against its immediate predecessor in
// execution order. Display-only.
type Momentum string

const (
	MomentumUp   Momentum = "up"
	MomentumFlat Momentum = "flat"
	MomentumDown Momentum = "down"
)

// Color maps a momentum class to the display emphasis color.
func (m Momentum) Color() string {
	switch m {
	case MomentumFlat:
		return "yellow"
	case MomentumDown:
		return "red"
	default:
		return "green"
	}
}

// DecoratedOrder is a RawEvent with the quote/base legs resolved and the
// unit price computed. Derived on every projection pass, never stored.
type DecoratedOrder struct {
	RawEvent

	QuoteAmt  decimal.Decimal `json:"quote_amount"`
	BaseAmt   decimal.Decimal `json:"base_amount"`
	UnitPrice decimal.Decimal `json:"unit_price"` // quote per base, 5 decimal places
	Side      string          `json:"side"`       // "buy" gives quote for base
	TimeLabel string          `json:"time_label"`
}

// DecoratedTrade adds tape-only display attributes to a decorated order.
type DecoratedTrade struct {
	DecoratedOrder

	Momentum Momentum `json:"momentum"`
}

// AccountTrade is a trade viewed from one account's perspective: the side
// and sign are relative to that account, not to the order maker.
type AccountTrade struct {
	DecoratedTrade

	AccountSide string `json:"account_side"` // buy if the account received base asset
	AmountSign  string `json:"amount_sign"`  // "+" for buys, "-" for sells
}

// OrderBook is the open order set split and priced for display.
// Both sides are sorted by unit price descending; neither side ever
// contains an id present in the other.
type OrderBook struct {
	Buy  []DecoratedOrder `json:"buy"`
	Sell []DecoratedOrder `json:"sell"`
}

// AccountView is the slice of the market belonging to one account.
type AccountView struct {
	OpenOrders   []DecoratedOrder `json:"open_orders"`
	FilledTrades []AccountTrade   `json:"filled_trades"`
}
