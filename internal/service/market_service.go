package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dexview/internal/domain"
	"dexview/internal/infra"
	"dexview/internal/store"
	"dexview/internal/view"
)

// MarketService owns the ledger event store and serves the derived views.
//
// There is exactly one writer: the event loop draining the inbox channel.
// Readers take a snapshot under RLock and project from it, so a projection
// pass never observes a half-applied event. Views are recomputed on every
// call; nothing derived is cached.
type MarketService struct {
	mu         sync.RWMutex
	store      *store.Store
	quoteAsset string
	ready      bool

	eventChan chan domain.RawEvent

	// journal, when set, records each live event before it is applied.
	// The journal is a cache of immutable facts, so a write failure
	// degrades to a warning instead of halting the feed.
	journal func(domain.RawEvent) error

	// Boundary: notified after each live event is applied, so a UI can
	// recompute whatever view it is currently showing.
	onUpdate func()
}

// NewMarketService creates a service for a market priced in quoteAsset.
func NewMarketService(quoteAsset string, journal func(domain.RawEvent) error, onUpdate func()) *MarketService {
	return &MarketService{
		store:      store.New(),
		quoteAsset: quoteAsset,
		journal:    journal,
		onUpdate:   onUpdate,
		eventChan:  make(chan domain.RawEvent, 256),
	}
}

// Bootstrap applies a complete backfill and marks the service ready.
// Views requested before this completes return ErrNotReady: projecting a
// partially filled store would report already-matched orders as open.
func (s *MarketService) Bootstrap(events []domain.RawEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		s.apply(ev)
	}
	s.ready = true

	orders, cancels, trades := s.store.Counts()
	slog.Info("Backfill applied",
		slog.Int("orders", orders),
		slog.Int("cancels", cancels),
		slog.Int("trades", trades),
	)
}

// EventChan returns the channel live feeds send events into.
func (s *MarketService) EventChan() chan<- domain.RawEvent {
	return s.eventChan
}

// StartEventProcessor starts the single-writer loop draining the inbox.
func (s *MarketService) StartEventProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.eventChan:
				s.ProcessEvent(ev)
			}
		}
	}()
}

// ProcessEvent applies one live event and notifies the update hook. One
// event, one append, one notification; bursts are not batched at this
// event volume.
func (s *MarketService) ProcessEvent(ev domain.RawEvent) {
	start := time.Now()

	// Journal-first, like a WAL: the raw fact is cached before any state
	// changes, so a crash mid-apply loses nothing.
	if s.journal != nil {
		if err := s.journal(ev); err != nil {
			infra.GlobalMetrics.RecordError()
			slog.Warn("Journal write failed",
				slog.String("kind", string(ev.Kind)),
				slog.Uint64("id", ev.ID),
				slog.Any("error", err),
			)
		}
	}

	s.mu.Lock()
	s.apply(ev)
	s.mu.Unlock()

	infra.GlobalMetrics.RecordEvent(time.Since(start).Nanoseconds())

	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// apply appends under the held write lock. Duplicates are silent no-ops
// inside the store; only a genuinely malformed record is dropped, and
// never in a way that fails the feed.
func (s *MarketService) apply(ev domain.RawEvent) {
	if ev.Kind != domain.KindOrder && !s.store.HasOrder(ev.ID) {
		// The Cancel subscription and the relay order feed are separate
		// transports, so a Cancel or Trade can outrun its order. The store
		// keeps it and set subtraction closes the order when it lands.
		infra.GlobalMetrics.RecordUnknownReference()
		slog.Debug("Event arrived before its order",
			slog.String("kind", string(ev.Kind)),
			slog.Uint64("id", ev.ID),
		)
	}

	if err := s.store.Append(ev); err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Warn("Dropping event",
			slog.String("kind", string(ev.Kind)),
			slog.Uint64("id", ev.ID),
			slog.Any("error", err),
		)
	}
}

// snapshot takes an immutable copy of the store for one projection pass.
func (s *MarketService) snapshot() (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return store.Snapshot{}, domain.ErrNotReady
	}
	return s.store.Snapshot(), nil
}

// OrderBook recomputes the open order book.
func (s *MarketService) OrderBook() (domain.OrderBook, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.OrderBook{}, err
	}
	infra.GlobalMetrics.RecordProjection()
	return view.OrderBook(snap, s.quoteAsset), nil
}

// TradeTape recomputes the trade tape in display order.
func (s *MarketService) TradeTape() ([]domain.DecoratedTrade, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	infra.GlobalMetrics.RecordProjection()
	return view.TradeTape(snap, s.quoteAsset), nil
}

// Account recomputes one account's open orders and filled trades.
func (s *MarketService) Account(account string) (domain.AccountView, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.AccountView{}, err
	}
	infra.GlobalMetrics.RecordProjection()
	return view.Account(snap, account, s.quoteAsset), nil
}
