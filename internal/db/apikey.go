package db

import (
	"time"
)

// APIKey authorizes a client (the public directory site, a mobile app) to
// post interaction events.
type APIKey struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Name identifies the client, e.g. "directory-web".
	Name string `gorm:"size:128;not null"`

	// Key is the bearer token value.
	Key string `gorm:"uniqueIndex;size:255;not null"`

	// RetentionDays overrides the global retention for events posted with
	// this key. Zero means "use the configured default".
	RetentionDays int `gorm:"not null;default:0"`

	Active bool `gorm:"default:true"`
}
