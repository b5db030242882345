package view

import (
	"testing"

	"dexview/internal/domain"
)

const (
	accountA = "0xaccountA"
	accountB = "0xaccountB"
)

func TestAccount_OwnRecordsOnly(t *testing.T) {
	// Account A owns one open order and took one trade; account B's
	// records must not leak into A's view.
	openA := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	openA.Maker = accountA

	openB := rawOrder(2, 11, quoteAsset, 100, baseAsset, 50)
	openB.Maker = accountB

	filledA := rawOrder(3, 12, quoteAsset, 100, baseAsset, 50)
	filledA.Maker = accountA
	tradeA := filledA
	tradeA.Kind = domain.KindTrade
	tradeA.Taker = accountB

	filledC := rawOrder(4, 13, quoteAsset, 100, baseAsset, 50)
	filledC.Maker = "0xother"
	tradeC := filledC
	tradeC.Kind = domain.KindTrade
	tradeC.Taker = "0xstranger"

	snap := seed(t, openA, openB, filledA, tradeA, filledC, tradeC)
	av := Account(snap, accountA, quoteAsset)

	if len(av.OpenOrders) != 1 || av.OpenOrders[0].ID != 1 {
		t.Fatalf("open orders = %v, want just order 1", av.OpenOrders)
	}
	if len(av.FilledTrades) != 1 || av.FilledTrades[0].ID != 3 {
		t.Fatalf("filled trades = %v, want just trade 3", av.FilledTrades)
	}
}

func TestAccount_OpenOrdersSortedByRecency(t *testing.T) {
	old := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	old.Maker = accountA
	recent := rawOrder(2, 20, quoteAsset, 100, baseAsset, 50)
	recent.Maker = accountA

	av := Account(seed(t, old, recent), accountA, quoteAsset)
	if len(av.OpenOrders) != 2 {
		t.Fatalf("open orders = %d, want 2", len(av.OpenOrders))
	}
	if av.OpenOrders[0].ID != 2 || av.OpenOrders[1].ID != 1 {
		t.Errorf("order = [%d, %d], want newest first [2, 1]",
			av.OpenOrders[0].ID, av.OpenOrders[1].ID)
	}
}

func TestAccount_MakerKeepsOrderSide(t *testing.T) {
	// A bid made by the account and filled by someone else stays a buy
	// from the account's perspective.
	o := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	o.Maker = accountA
	tr := o
	tr.Kind = domain.KindTrade
	tr.Taker = accountB

	av := Account(seed(t, o, tr), accountA, quoteAsset)
	if len(av.FilledTrades) != 1 {
		t.Fatal("expected one filled trade")
	}
	got := av.FilledTrades[0]
	if got.AccountSide != domain.SideBuy || got.AmountSign != "+" {
		t.Errorf("maker view = (%s, %s), want (buy, +)", got.AccountSide, got.AmountSign)
	}
}

func TestAccount_TakerSeesOppositeSide(t *testing.T) {
	// The same fill viewed by the taker is a sell.
	o := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	o.Maker = accountA
	tr := o
	tr.Kind = domain.KindTrade
	tr.Taker = accountB

	av := Account(seed(t, o, tr), accountB, quoteAsset)
	if len(av.FilledTrades) != 1 {
		t.Fatal("expected one filled trade")
	}
	got := av.FilledTrades[0]
	if got.AccountSide != domain.SideSell || got.AmountSign != "-" {
		t.Errorf("taker view = (%s, %s), want (sell, -)", got.AccountSide, got.AmountSign)
	}
}

func TestAccount_CancelledOrderLeavesOpenSet(t *testing.T) {
	o := rawOrder(1, 10, quoteAsset, 100, baseAsset, 50)
	o.Maker = accountA
	c := o
	c.Kind = domain.KindCancel

	av := Account(seed(t, o, c), accountA, quoteAsset)
	if len(av.OpenOrders) != 0 {
		t.Errorf("open orders = %v, want none after cancel", av.OpenOrders)
	}
}
