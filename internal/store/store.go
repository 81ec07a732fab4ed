// Package store persists minute bars in Postgres/TimescaleDB for the
// backfill job and the offline backtester. The live engine never reads it.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MinuteBar is one row of the minute_bars table.
type MinuteBar struct {
	Ts     time.Time `gorm:"column:ts;primaryKey"`
	Symbol string    `gorm:"column:symbol;primaryKey;size:16"`
	Open   float64   `gorm:"column:open"`
	High   float64   `gorm:"column:high"`
	Low    float64   `gorm:"column:low"`
	Close  float64   `gorm:"column:close"`
	Volume int64     `gorm:"column:volume"`
}

func (MinuteBar) TableName() string { return "minute_bars" }

// Store wraps the bar table.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&MinuteBar{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection (tests).
func New(db *gorm.DB) *Store { return &Store{db: db} }

// UpsertBars inserts bars, skipping rows whose (ts, symbol) already exist.
func (s *Store) UpsertBars(ctx context.Context, bars []MinuteBar) error {
	if len(bars) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(bars, 500).Error
}

// BarsBetween returns the bars for symbol in [start, end], oldest first.
func (s *Store) BarsBetween(ctx context.Context, symbol string, start, end time.Time) ([]MinuteBar, error) {
	var bars []MinuteBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND ts >= ? AND ts <= ?", symbol, start, end).
		Order("ts ASC").
		Find(&bars).Error
	return bars, err
}

// Count returns the number of stored bars for symbol.
func (s *Store) Count(ctx context.Context, symbol string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&MinuteBar{}).
		Where("symbol = ?", symbol).
		Count(&n).Error
	return n, err
}
