package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campusinsight/internal/logger"
)

// RunRetentionOnce deletes every event whose ExpiresAt is not after now and
// returns how many rows were removed.
func RunRetentionOnce(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Delete(&Event{})
	return res.RowsAffected, res.Error
}

// StartRetentionWorker runs the retention cleanup once at startup and then
// once per day until ctx is cancelled.
func StartRetentionWorker(ctx context.Context, db *gorm.DB) {
	log := logger.Get("retention")
	run := func() {
		n, err := RunRetentionOnce(ctx, db, time.Now())
		if err != nil {
			log.WithError(err).Error("retention cleanup failed")
			return
		}
		if n > 0 {
			log.WithField("deleted", n).Info("expired events removed")
		}
	}

	go func() {
		run()

		ticker := time.NewTicker(24 * time.Hour)
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
