package db

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"campusinsight/internal/analytics"
	"campusinsight/internal/logger"
)

// EventQuery narrows FetchEvents. Zero values mean "no filter".
// Timestamps are stored and compared in UTC.
type EventQuery struct {
	Kind  analytics.Kind
	Since *time.Time
	Until *time.Time
}

// InsertEvents stores a batch of analytics events. retentionDays > 0 stamps
// each row with an expiry relative to its timestamp (or now, when the event
// has none).
func InsertEvents(ctx context.Context, db *gorm.DB, events []analytics.Event, retentionDays int, now time.Time) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]Event, 0, len(events))
	for _, e := range events {
		row := Event{
			EventType: string(e.Kind()),
			SessionID: e.SessionID,
			EventData: analytics.Encode(e.Payload),
		}
		base := now
		if e.HasTimestamp() {
			ts := e.CreatedAt.UTC()
			row.CreatedAt = &ts
			base = ts
		}
		if retentionDays > 0 {
			exp := base.Add(time.Duration(retentionDays) * 24 * time.Hour)
			row.ExpiresAt = &exp
		}
		rows = append(rows, row)
	}

	return db.WithContext(ctx).CreateInBatches(rows, 500).Error
}

// FetchEvents loads stored events as analytics events, oldest first. Rows
// whose type or payload cannot be decoded are skipped and counted in the log.
// Rows without a timestamp only match when no time bound is given.
func FetchEvents(ctx context.Context, db *gorm.DB, q EventQuery) ([]analytics.Event, error) {
	tx := db.WithContext(ctx).Model(&Event{})
	if q.Kind != "" {
		tx = tx.Where("event_type = ?", string(q.Kind))
	}
	if q.Since != nil {
		tx = tx.Where("created_at >= ?", q.Since.UTC())
	}
	if q.Until != nil {
		tx = tx.Where("created_at <= ?", q.Until.UTC())
	}

	var rows []Event
	if err := tx.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	events := make([]analytics.Event, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		e, err := row.ToAnalytics()
		if err != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	if skipped > 0 {
		logger.Get("store").WithField("skipped", skipped).Warn("undecodable events ignored")
	}
	return events, nil
}

// ToAnalytics decodes the stored row.
func (e Event) ToAnalytics() (analytics.Event, error) {
	var createdAt time.Time
	if e.CreatedAt != nil {
		createdAt = *e.CreatedAt
	}
	return analytics.Decode(e.EventType, e.EventData, e.SessionID, createdAt)
}

// CountRow is one entry of a top-N list.
type CountRow struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SummaryStats is the lightweight headline computed in SQL, without loading
// the batch into memory.
type SummaryStats struct {
	TotalSearches int64      `json:"totalSearches"`
	TotalClicks   int64      `json:"totalClicks"`
	TopSearches   []CountRow `json:"topSearches"`
	TopGroups     []CountRow `json:"topGroups"`
}

// FetchSummaryStats counts searches and group clicks since the given time (all
// time when nil) and returns the most frequent queries and groups. The four
// queries run concurrently; the first failure cancels the rest.
func FetchSummaryStats(ctx context.Context, db *gorm.DB, since *time.Time, limit int) (*SummaryStats, error) {
	if limit <= 0 {
		limit = 10
	}

	g, gctx := errgroup.WithContext(ctx)
	scoped := func(kind analytics.Kind) *gorm.DB {
		tx := db.WithContext(gctx).Model(&Event{}).Where("event_type = ?", string(kind))
		if since != nil {
			tx = tx.Where("created_at >= ?", since.UTC())
		}
		return tx
	}
	top := func(kind analytics.Kind, key string, out *[]CountRow) error {
		expr := jsonText(db, "event_data", key)
		return scoped(kind).
			Select(expr + " AS name, COUNT(*) AS count").
			Where(expr + " IS NOT NULL AND " + expr + " <> ''").
			Group(expr).
			Order("count DESC, name ASC").
			Limit(limit).
			Scan(out).Error
	}

	stats := &SummaryStats{TopSearches: []CountRow{}, TopGroups: []CountRow{}}

	g.Go(func() error {
		if err := scoped(analytics.KindSearch).Count(&stats.TotalSearches).Error; err != nil {
			return fmt.Errorf("count searches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := scoped(analytics.KindGroupClick).Count(&stats.TotalClicks).Error; err != nil {
			return fmt.Errorf("count clicks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := top(analytics.KindSearch, "query", &stats.TopSearches); err != nil {
			return fmt.Errorf("top searches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := top(analytics.KindGroupClick, "group_id", &stats.TopGroups); err != nil {
			return fmt.Errorf("top groups: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// jsonText is the dialect's expression for a top-level JSON string field.
// key is always a constant from this package.
func jsonText(db *gorm.DB, column, key string) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	}
	return fmt.Sprintf("json_extract(%s, '$.%s')", column, key)
}
