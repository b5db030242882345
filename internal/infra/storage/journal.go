// Package storage caches raw ledger events in SQLite. The events are
// immutable facts, so this is not derived-state persistence: the journal
// only saves refetching the whole historical range on every restart.
// Derived views are always recomputed in memory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"dexview/internal/domain"
)

// EventRecord is one journaled ledger event. The surrogate id preserves
// emission order for replay; (kind, order_id) is unique so replays and
// resyncs collapse to one row.
type EventRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"size:8;uniqueIndex:idx_kind_order"`
	OrderID   uint64 `gorm:"uniqueIndex:idx_kind_order"`
	Maker     string
	Taker     string
	GiveAsset string
	GiveAmt   string // decimal as string; SQLite has no exact big-integer type
	GetAsset  string
	GetAmt    string
	Timestamp int64  `gorm:"index"`
	Block     uint64 `gorm:"index"` // zero for relay-delivered records
}

// Journal is the SQLite-backed raw event cache.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal at path.
func NewJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	return &Journal{db: db}, nil
}

// Append journals one event. Re-journaling an already-seen (kind, id) pair
// is a no-op, so the live feed and a later backfill can safely overlap.
func (j *Journal) Append(ev domain.RawEvent) error {
	return j.db.Clauses(clause.OnConflict{DoNothing: true}).Create(toRecord(ev)).Error
}

// AppendBatch journals a backfill result in one transaction.
func (j *Journal) AppendBatch(events []domain.RawEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]*EventRecord, len(events))
	for i, ev := range events {
		rows[i] = toRecord(ev)
	}
	return j.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 200).Error
}

// Replay returns all journaled events in their original emission order.
func (j *Journal) Replay() ([]domain.RawEvent, error) {
	var rows []EventRecord
	if err := j.db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]domain.RawEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := fromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("corrupt journal row %d: %w", row.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// MaxBlock returns the highest chain block among the journaled events, or
// zero for an empty journal. A restart resumes its backfill here instead of
// the configured start block. Relay-delivered rows carry block zero and
// never advance the watermark.
func (j *Journal) MaxBlock() (uint64, error) {
	var block uint64
	err := j.db.Model(&EventRecord{}).
		Select("coalesce(max(block), 0)").
		Scan(&block).Error
	return block, err
}

// Count returns the number of journaled events.
func (j *Journal) Count() (int64, error) {
	var n int64
	err := j.db.Model(&EventRecord{}).Count(&n).Error
	return n, err
}

func toRecord(ev domain.RawEvent) *EventRecord {
	return &EventRecord{
		Kind:      string(ev.Kind),
		OrderID:   ev.ID,
		Maker:     ev.Maker,
		Taker:     ev.Taker,
		GiveAsset: ev.GiveAsset,
		GiveAmt:   ev.GiveAmt.String(),
		GetAsset:  ev.GetAsset,
		GetAmt:    ev.GetAmt.String(),
		Timestamp: ev.Timestamp,
		Block:     ev.Block,
	}
}

func fromRecord(row EventRecord) (domain.RawEvent, error) {
	giveAmt, err := decimal.NewFromString(row.GiveAmt)
	if err != nil {
		return domain.RawEvent{}, err
	}
	getAmt, err := decimal.NewFromString(row.GetAmt)
	if err != nil {
		return domain.RawEvent{}, err
	}

	return domain.RawEvent{
		Kind:      domain.EventKind(row.Kind),
		ID:        row.OrderID,
		Maker:     row.Maker,
		Taker:     row.Taker,
		GiveAsset: row.GiveAsset,
		GiveAmt:   giveAmt,
		GetAsset:  row.GetAsset,
		GetAmt:    getAmt,
		Timestamp: row.Timestamp,
		Block:     row.Block,
	}, nil
}
