package view

import (
	"sort"

	"dexview/internal/domain"
	"dexview/internal/store"
)

// TradeTape projects the completed trades into display order, most recent
// first, with each trade's momentum classified against its predecessor.
//
// Classification and display need different orders, so the projection is
// two explicit passes: a stable ascending sort by timestamp to walk trades
// in causal order and assign momentum, then a stable descending re-sort
// for the tape. Equal timestamps keep log order in both passes. Collapsing
// the passes into one sort classifies against the wrong neighbor; keep
// them separate.
func TradeTape(snap store.Snapshot, quoteAsset string) []domain.DecoratedTrade {
	trades := append([]domain.RawEvent(nil), snap.Trades...)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})

	tape := make([]domain.DecoratedTrade, 0, len(trades))
	var prev *domain.DecoratedTrade
	for _, ev := range trades {
		dec, err := Decorate(ev, quoteAsset)
		if err != nil {
			continue
		}
		t := domain.DecoratedTrade{
			DecoratedOrder: dec,
			Momentum:       classify(dec, prev),
		}
		tape = append(tape, t)
		prev = &tape[len(tape)-1]
	}

	sort.SliceStable(tape, func(i, j int) bool {
		return tape[i].Timestamp > tape[j].Timestamp
	})
	return tape
}

// classify compares a trade's price to the immediately preceding trade in
// execution order. The first trade of the sequence is up by convention,
// equality is flat, and down means strictly lower than the predecessor.
func classify(cur domain.DecoratedOrder, prev *domain.DecoratedTrade) domain.Momentum {
	if prev == nil {
		return domain.MomentumUp
	}
	switch cur.UnitPrice.Cmp(prev.UnitPrice) {
	case 0:
		return domain.MomentumFlat
	case -1:
		return domain.MomentumDown
	default:
		return domain.MomentumUp
	}
}
