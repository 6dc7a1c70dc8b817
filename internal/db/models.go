package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is one stored user interaction. EventData keeps the loosely-typed
// payload exactly as the client sent it; it is decoded into a typed payload
// only when read back for analysis.
type Event struct {
	ID uint `gorm:"primaryKey"`

	// CreatedAt is nil for events imported without a timestamp. Automatic
	// timestamping is off so such rows stay nil.
	CreatedAt *time.Time `gorm:"index;autoCreateTime:false"`

	// ExpiresAt is the timestamp after which this event is eligible
	// for deletion by the retention worker. A nil value means the
	// event does not currently expire.
	ExpiresAt *time.Time `gorm:"index"`

	EventType string `gorm:"index;size:32;not null"`
	SessionID string `gorm:"index;size:128"`

	EventData datatypes.JSONMap `gorm:"type:json"`
}

// DailyRollup stores the per-day activity counters computed by the rollup
// worker, one row per calendar day in the configured timezone.
type DailyRollup struct {
	ID uint `gorm:"primaryKey"`

	Date string `gorm:"column:day;uniqueIndex;size:10;not null"` // YYYY-MM-DD

	Search           int64 `gorm:"not null"`
	GroupClick       int64 `gorm:"not null"`
	SuggestionSelect int64 `gorm:"not null"`
	Total            int64 `gorm:"not null"` // all kinds, not only the three above

	UpdatedAt time.Time
}
