package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campusinsight/internal/analytics"
)

// Store exposes the event store operations the HTTP layer and the analytics
// service depend on.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) FetchEvents(ctx context.Context, q EventQuery) ([]analytics.Event, error) {
	return FetchEvents(ctx, s.db, q)
}

func (s *Store) InsertEvents(ctx context.Context, events []analytics.Event, retentionDays int, now time.Time) error {
	return InsertEvents(ctx, s.db, events, retentionDays, now)
}

func (s *Store) SummaryStats(ctx context.Context, since *time.Time, limit int) (*SummaryStats, error) {
	return FetchSummaryStats(ctx, s.db, since, limit)
}

func (s *Store) DailyRollups(ctx context.Context, since string) ([]analytics.DailyActivity, error) {
	return ListDailyRollups(ctx, s.db, since)
}
