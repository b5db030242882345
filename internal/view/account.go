package view

import (
	"sort"

	"dexview/internal/domain"
	"dexview/internal/store"
)

// Account projects the slice of the market belonging to one account.
//
// Open orders are the account's share of the open set, sorted by recency
// rather than price — the cancel panel lists newest first. Filled trades
// are the tape entries where the account is maker or taker, kept in tape
// display order, with side and sign re-expressed from the account's
// perspective. Cancelling remains a ledger transaction submitted outside
// the core; this projection only recomputes once the Cancel event lands.
func Account(snap store.Snapshot, account, quoteAsset string) domain.AccountView {
	var av domain.AccountView

	for _, ev := range openOrders(snap) {
		if ev.Maker != account {
			continue
		}
		dec, err := Decorate(ev, quoteAsset)
		if err != nil {
			continue
		}
		av.OpenOrders = append(av.OpenOrders, dec)
	}
	sort.SliceStable(av.OpenOrders, func(i, j int) bool {
		return av.OpenOrders[i].Timestamp > av.OpenOrders[j].Timestamp
	})

	for _, t := range TradeTape(snap, quoteAsset) {
		if !t.Involves(account) {
			continue
		}
		av.FilledTrades = append(av.FilledTrades, accountTrade(t, account))
	}
	return av
}

// accountTrade re-expresses a trade from the account's side of it: the
// maker keeps the order's side, the taker took the opposite side.
func accountTrade(t domain.DecoratedTrade, account string) domain.AccountTrade {
	side := t.Side
	if t.Maker != account {
		if side == domain.SideBuy {
			side = domain.SideSell
		} else {
			side = domain.SideBuy
		}
	}

	sign := "-"
	if side == domain.SideBuy {
		sign = "+"
	}

	return domain.AccountTrade{
		DecoratedTrade: t,
		AccountSide:    side,
		AmountSign:     sign,
	}
}
