// Package view derives display projections from a store snapshot. Every
// function here is pure: same snapshot in, same view out, nothing cached
// and nothing mutated.
package view

import (
	"time"

	"dexview/internal/domain"
)

// pricePlaces is the number of decimal places a unit price is rounded to,
// matching the display precision of the trading UI.
const pricePlaces = 5

// timeLayout renders a ledger timestamp the way the tape displays it,
// e.g. "3:04:05 pm 1/2".
const timeLayout = "3:04:05 pm 1/2"

// Decorate resolves a raw event's legs against the quote asset and computes
// its unit price.
//
// The order gives one asset and gets the other; whichever leg matches
// quoteAsset becomes the quote amount and the opposite leg the base amount.
// An order giving the quote asset is bidding for base, so its side is buy.
// UnitPrice is quote per base, rounded half up to five decimal places.
// A zero base amount returns ErrZeroBaseAmount; such records stay in the
// raw store but are excluded from priced views by the callers.
func Decorate(ev domain.RawEvent, quoteAsset string) (domain.DecoratedOrder, error) {
	var quoteAmt, baseAmt, side = ev.GetAmt, ev.GiveAmt, domain.SideSell
	if ev.GiveAsset == quoteAsset {
		quoteAmt, baseAmt, side = ev.GiveAmt, ev.GetAmt, domain.SideBuy
	}

	if baseAmt.IsZero() {
		return domain.DecoratedOrder{}, domain.ErrZeroBaseAmount
	}

	return domain.DecoratedOrder{
		RawEvent:  ev,
		QuoteAmt:  quoteAmt,
		BaseAmt:   baseAmt,
		UnitPrice: quoteAmt.Div(baseAmt).Round(pricePlaces),
		Side:      side,
		TimeLabel: time.Unix(ev.Timestamp, 0).UTC().Format(timeLayout),
	}, nil
}
