package view

import (
	"reflect"
	"testing"

	"dexview/internal/domain"
	"dexview/internal/store"
)

// seed builds a store from events, in the order the feed delivered them.
func seed(t *testing.T, events ...domain.RawEvent) store.Snapshot {
	t.Helper()
	s := store.New()
	for _, ev := range events {
		if err := s.Append(ev); err != nil {
			t.Fatalf("append %s %d: %v", ev.Kind, ev.ID, err)
		}
	}
	return s.Snapshot()
}

func asKind(ev domain.RawEvent, kind domain.EventKind) domain.RawEvent {
	ev.Kind = kind
	return ev
}

func TestOrderBook_PartitionsBySide(t *testing.T) {
	snap := seed(t,
		rawOrder(1, 10, quoteAsset, 100, baseAsset, 50), // buy at 2
		rawOrder(2, 11, baseAsset, 50, quoteAsset, 100), // sell at 2
	)

	book := OrderBook(snap, quoteAsset)
	if len(book.Buy) != 1 || len(book.Sell) != 1 {
		t.Fatalf("book sides = (%d, %d), want (1, 1)", len(book.Buy), len(book.Sell))
	}
	if book.Buy[0].ID != 1 || book.Sell[0].ID != 2 {
		t.Errorf("ids = (%d, %d), want (1, 2)", book.Buy[0].ID, book.Sell[0].ID)
	}
}

func TestOrderBook_ClosedOrdersExcluded(t *testing.T) {
	o7 := rawOrder(7, 10, quoteAsset, 100, baseAsset, 50)
	o8 := rawOrder(8, 11, quoteAsset, 100, baseAsset, 50)
	o9 := rawOrder(9, 12, quoteAsset, 100, baseAsset, 50)

	snap := seed(t, o7, o8, o9,
		asKind(o7, domain.KindTrade),  // filled
		asKind(o8, domain.KindCancel), // withdrawn
	)

	book := OrderBook(snap, quoteAsset)
	if len(book.Buy) != 1 || book.Buy[0].ID != 9 {
		t.Fatalf("open set = %v, want just order 9", ids(book.Buy))
	}

	// The filled order still shows on the tape.
	tape := TradeTape(snap, quoteAsset)
	if len(tape) != 1 || tape[0].ID != 7 {
		t.Errorf("tape = %v, want just trade 7", tape)
	}
}

func TestOrderBook_SortedByPriceDescending(t *testing.T) {
	snap := seed(t,
		rawOrder(1, 10, quoteAsset, 100, baseAsset, 100), // 1
		rawOrder(2, 11, quoteAsset, 300, baseAsset, 100), // 3
		rawOrder(3, 12, quoteAsset, 200, baseAsset, 100), // 2
	)

	book := OrderBook(snap, quoteAsset)
	if got, want := ids(book.Buy), []uint64{2, 3, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("buy side order = %v, want %v", got, want)
	}
}

func TestOrderBook_EqualPriceTieBreaksByID(t *testing.T) {
	snap := seed(t,
		rawOrder(5, 10, quoteAsset, 100, baseAsset, 50),
		rawOrder(2, 11, quoteAsset, 100, baseAsset, 50),
		rawOrder(9, 12, quoteAsset, 100, baseAsset, 50),
	)

	book := OrderBook(snap, quoteAsset)
	if got, want := ids(book.Buy), []uint64{2, 5, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("tie-break order = %v, want %v", got, want)
	}
}

func TestOrderBook_ZeroBaseExcluded(t *testing.T) {
	snap := seed(t,
		rawOrder(1, 10, quoteAsset, 100, baseAsset, 0), // unpriceable
		rawOrder(2, 11, quoteAsset, 100, baseAsset, 50),
	)

	book := OrderBook(snap, quoteAsset)
	if got, want := ids(book.Buy), []uint64{2}; !reflect.DeepEqual(got, want) {
		t.Errorf("buy side = %v, want %v", got, want)
	}
}

// The Cancel subscription and the order feed are independent transports,
// so a Cancel can be delivered before its order. The order must still come
// out closed.
func TestOrderBook_CancelBeforeOrderStillClosed(t *testing.T) {
	o5 := rawOrder(5, 10, quoteAsset, 100, baseAsset, 50)
	snap := seed(t, asKind(o5, domain.KindCancel), o5)

	book := OrderBook(snap, quoteAsset)
	if n := len(book.Buy) + len(book.Sell); n != 0 {
		t.Errorf("order 5 reported open (%v) despite an observed cancel", ids(book.Buy))
	}
}

func TestOrderBook_Idempotent(t *testing.T) {
	snap := seed(t,
		rawOrder(1, 10, quoteAsset, 100, baseAsset, 50),
		rawOrder(2, 11, baseAsset, 50, quoteAsset, 110),
		rawOrder(3, 12, quoteAsset, 100, baseAsset, 50),
	)

	first := OrderBook(snap, quoteAsset)
	second := OrderBook(snap, quoteAsset)
	if !reflect.DeepEqual(first, second) {
		t.Error("projecting an unchanged snapshot twice must be identical")
	}
}

// Every order is in exactly one of open, filled, cancelled.
func TestOrderStatePartition(t *testing.T) {
	o1 := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	o2 := rawOrder(2, 11, quoteAsset, 100, baseAsset, 50)
	o3 := rawOrder(3, 12, quoteAsset, 100, baseAsset, 50)

	snap := seed(t, o1, o2, o3,
		asKind(o2, domain.KindTrade),
		asKind(o3, domain.KindCancel),
	)

	open := make(map[uint64]bool)
	for _, ev := range openOrders(snap) {
		open[ev.ID] = true
	}
	filled := make(map[uint64]bool)
	for _, ev := range snap.Trades {
		filled[ev.ID] = true
	}
	cancelled := make(map[uint64]bool)
	for _, ev := range snap.Cancels {
		cancelled[ev.ID] = true
	}

	for _, ev := range snap.Orders {
		n := 0
		for _, in := range []bool{open[ev.ID], filled[ev.ID], cancelled[ev.ID]} {
			if in {
				n++
			}
		}
		if n != 1 {
			t.Errorf("order %d is in %d states, want exactly 1", ev.ID, n)
		}
	}
}

func ids(orders []domain.DecoratedOrder) []uint64 {
	out := make([]uint64, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
