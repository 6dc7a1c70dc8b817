package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusinsight/internal/analytics"
	"campusinsight/internal/logger"
)

// RollupDays is how many calendar days the rollup worker recomputes on each
// pass. Older rollups are left untouched.
const RollupDays = 35

// RollupOnce recomputes the daily rollups for the last `days` calendar days
// in loc (today included) and upserts them by date. It returns the number of
// days written.
func RollupOnce(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location, days int) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(days - 1))

	events, err := FetchEvents(ctx, db, EventQuery{Since: &start, Until: &now})
	if err != nil {
		return 0, err
	}

	series := analytics.BuildDailySeries(events, loc)
	if len(series) == 0 {
		return 0, nil
	}

	rows := make([]DailyRollup, 0, len(series))
	for _, d := range series {
		rows = append(rows, DailyRollup{
			Date:             d.Date,
			Search:           int64(d.Search),
			GroupClick:       int64(d.GroupClick),
			SuggestionSelect: int64(d.SuggestionSelect),
			Total:            int64(d.Total),
			UpdatedAt:        now,
		})
	}

	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"search", "group_click", "suggestion_select", "total", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("upsert rollups: %w", err)
	}
	return len(rows), nil
}

// ListDailyRollups returns stored rollups with Date >= since (all when
// empty), ascending by date.
func ListDailyRollups(ctx context.Context, db *gorm.DB, since string) ([]analytics.DailyActivity, error) {
	tx := db.WithContext(ctx).Model(&DailyRollup{})
	if since != "" {
		tx = tx.Where("day >= ?", since)
	}

	var rows []DailyRollup
	if err := tx.Order("day ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list rollups: %w", err)
	}

	out := make([]analytics.DailyActivity, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.DailyActivity{
			Date:             r.Date,
			Search:           int(r.Search),
			GroupClick:       int(r.GroupClick),
			SuggestionSelect: int(r.SuggestionSelect),
			Total:            int(r.Total),
		})
	}
	return out, nil
}

// StartRollupWorker refreshes the daily rollups at startup and then hourly
// until ctx is cancelled.
func StartRollupWorker(ctx context.Context, db *gorm.DB, loc *time.Location) {
	log := logger.Get("rollup")
	run := func() {
		n, err := RollupOnce(ctx, db, time.Now(), loc, RollupDays)
		if err != nil {
			log.WithError(err).Error("daily rollup failed")
			return
		}
		log.WithField("days", n).Debug("daily rollups refreshed")
	}

	go func() {
		run()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
