package view

import (
	"sort"

	"dexview/internal/domain"
	"dexview/internal/store"
)

// openOrders returns the orders with no Cancel or Trade referencing their
// id, in partition insertion order. Open-ness is recomputed by set
// subtraction on every call; it is never stored as a flag, so a late
// Cancel or Trade can never leave a stale "open" marker behind.
func openOrders(snap store.Snapshot) []domain.RawEvent {
	closed := make(map[uint64]struct{}, len(snap.Cancels)+len(snap.Trades))
	for _, ev := range snap.Cancels {
		closed[ev.ID] = struct{}{}
	}
	for _, ev := range snap.Trades {
		closed[ev.ID] = struct{}{}
	}

	var open []domain.RawEvent
	for _, ev := range snap.Orders {
		if _, ok := closed[ev.ID]; !ok {
			open = append(open, ev)
		}
	}
	return open
}

// OrderBook projects the open order set into its two priced sides.
//
// Each side is sorted by unit price descending. Equal prices order by id
// ascending: the reference behavior left the tie-break to stable-sort
// accident, so a deterministic rule is chosen and documented here instead.
// Orders whose price cannot be computed (zero base leg) are left out.
func OrderBook(snap store.Snapshot, quoteAsset string) domain.OrderBook {
	var book domain.OrderBook
	for _, ev := range openOrders(snap) {
		dec, err := Decorate(ev, quoteAsset)
		if err != nil {
			continue
		}
		if dec.Side == domain.SideBuy {
			book.Buy = append(book.Buy, dec)
		} else {
			book.Sell = append(book.Sell, dec)
		}
	}

	sortSide(book.Buy)
	sortSide(book.Sell)
	return book
}

func sortSide(side []domain.DecoratedOrder) {
	sort.SliceStable(side, func(i, j int) bool {
		if c := side[i].UnitPrice.Cmp(side[j].UnitPrice); c != 0 {
			return c > 0
		}
		return side[i].ID < side[j].ID
	})
}
