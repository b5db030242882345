// Package store holds the append-only ledger event log the projectors read
// from. It keeps the three partitions the exchange contract emits and
// nothing else: no query logic, no derived state, no deletions.
package store

import "dexview/internal/domain"

// Store partitions ingested events by kind. It is not synchronized; the
// market service owns the single writer and guards external reads.
type Store struct {
	orders  []domain.RawEvent
	cancels []domain.RawEvent
	trades  []domain.RawEvent

	seen        map[uint64]struct{} // order ids already appended
	seenCancels map[uint64]struct{}
	seenTrades  map[uint64]struct{}
}

// Snapshot is an immutable copy of all three partitions, taken at the start
// of a projection pass. Projectors never read the live store directly.
type Snapshot struct {
	Orders  []domain.RawEvent
	Cancels []domain.RawEvent
	Trades  []domain.RawEvent
}

// New creates an empty store.
func New() *Store {
	return &Store{
		seen:        make(map[uint64]struct{}),
		seenCancels: make(map[uint64]struct{}),
		seenTrades:  make(map[uint64]struct{}),
	}
}

// Append inserts a record into the partition named by its kind.
//
// Appends are idempotent on id: the ledger never re-emits, but a journal
// replay or a resync can, so a duplicate id within a partition is dropped
// without error. A Cancel or Trade citing an id not yet in orders is
// stored anyway — the live Cancel subscription and the relay order feed
// are independent transports, so a Cancel may land before its order, and
// set subtraction closes the order the moment it arrives. Rejecting the
// early record would leave the order reported open forever.
func (s *Store) Append(ev domain.RawEvent) error {
	switch ev.Kind {
	case domain.KindOrder:
		if _, dup := s.seen[ev.ID]; dup {
			return nil
		}
		s.seen[ev.ID] = struct{}{}
		s.orders = append(s.orders, ev)
	case domain.KindCancel:
		if _, dup := s.seenCancels[ev.ID]; dup {
			return nil
		}
		s.seenCancels[ev.ID] = struct{}{}
		s.cancels = append(s.cancels, ev)
	case domain.KindTrade:
		if _, dup := s.seenTrades[ev.ID]; dup {
			return nil
		}
		s.seenTrades[ev.ID] = struct{}{}
		s.trades = append(s.trades, ev)
	default:
		return domain.ErrUnknownEventKind
	}
	return nil
}

// HasOrder reports whether an Order with this id has been appended. Feed
// code uses it to spot Cancels and Trades arriving ahead of their order.
func (s *Store) HasOrder(id uint64) bool {
	_, ok := s.seen[id]
	return ok
}

// Snapshot returns copies of all three partitions in insertion order.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Orders:  append([]domain.RawEvent(nil), s.orders...),
		Cancels: append([]domain.RawEvent(nil), s.cancels...),
		Trades:  append([]domain.RawEvent(nil), s.trades...),
	}
}

// Counts returns the size of each partition, for logging.
func (s *Store) Counts() (orders, cancels, trades int) {
	return len(s.orders), len(s.cancels), len(s.trades)
}
