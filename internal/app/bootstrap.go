package app

import (
	"context"
	"log/slog"

	"dexview/internal/domain"
	"dexview/internal/infra"
	"dexview/internal/infra/ledger"
	"dexview/internal/infra/storage"
	"dexview/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Journal // nil when disabled
	Ledger  *ledger.Client
	Market  *service.MarketService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, journal,
// ledger connection). onUpdate is invoked after each applied live event.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string, onUpdate func()) error {
	slog.Info("🚀 Bootstrapping dexview...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Open the event journal (optional cache)
	if cfg.Journal.Path != "" {
		journal, err := storage.NewJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		b.Journal = journal
		slog.Info("✅ Event journal opened", slog.String("path", cfg.Journal.Path))
	}

	// 4. Dial the ledger node
	client, err := ledger.NewClient(ctx,
		cfg.Ledger.RPCURL,
		cfg.Ledger.Exchange,
		cfg.Ledger.PrivateKey,
	)
	if err != nil {
		return err
	}
	b.Ledger = client
	slog.Info("✅ Ledger node connected", slog.String("url", cfg.Ledger.RPCURL))

	// 5. Market service
	var persist func(domain.RawEvent) error
	if b.Journal != nil {
		persist = b.Journal.Append
	}
	b.Market = service.NewMarketService(cfg.Ledger.QuoteAsset, persist, onUpdate)

	return nil
}

// Sync fills the store: journal replay first for a warm start, then a
// chain backfill resumed from the highest journaled block, so the cached
// range is not refetched on every restart. The store marks ready only
// after the chain range is applied — a journal alone may be stale, and
// projecting a partial store would report matched orders as open. The
// boundary block is fetched whole, and the overlap with replayed rows
// collapses under the store's id dedupe.
func (b *Bootstrap) Sync(ctx context.Context) error {
	var events []domain.RawEvent
	fromBlock := b.Config.Ledger.FromBlock

	if b.Journal != nil {
		cached, err := b.Journal.Replay()
		if err != nil {
			slog.Warn("Journal replay failed, falling back to full backfill", slog.Any("error", err))
		} else {
			events = cached
			if watermark, err := b.Journal.MaxBlock(); err == nil {
				fromBlock = resumeBlock(fromBlock, watermark)
			}
			slog.Info("🔄 Journal replayed",
				slog.Int("events", len(cached)),
				slog.Uint64("resume_block", fromBlock),
			)
		}
	}

	fetched, err := b.Ledger.Backfill(ctx, fromBlock)
	if err != nil {
		return err
	}
	events = append(events, fetched...)

	b.Market.Bootstrap(events)

	if b.Journal != nil {
		if err := b.Journal.AppendBatch(fetched); err != nil {
			slog.Warn("Journal batch write failed", slog.Any("error", err))
		}
	}

	slog.Info("✨ Store synchronized and ready")
	return nil
}

// resumeBlock picks the backfill start: the journal watermark when it is
// past the configured start block, otherwise the configured block. The
// watermark block itself is refetched; journaling may have caught only part
// of it before the last shutdown.
func resumeBlock(configured, journaled uint64) uint64 {
	if journaled > configured {
		return journaled
	}
	return configured
}
