package db

import (
	"time"
)

// User is a console administrator. Analytics endpoints authenticate against
// this table with HTTP Basic credentials; the bootstrap admin from config is
// created on startup.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	IsAdmin bool `gorm:"default:false"`
}
