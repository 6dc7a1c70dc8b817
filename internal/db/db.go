package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"campusinsight/internal/config"
)

const sqlitePrefix = "sqlite://"

// Connect opens the event store named by APP_DATABASE_URL and migrates it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.DatabaseURL)
}

// Open opens a postgres:// or sqlite:// URL and migrates the core tables.
// For sqlite the remainder after the scheme is handed to the driver as-is,
// so "sqlite://file::memory:" gives a private in-memory database.
func Open(url string) (*gorm.DB, error) {
	dsn := strings.TrimSpace(url)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (postgres:// or sqlite:// URL)")
	}

	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
		// PrepareStmt keeps the postgres migrator off the simple protocol,
		// which otherwise fails its "SELECT * ... LIMIT 1" check.
		gcfg.PrepareStmt = true
	case strings.HasPrefix(dsn, sqlitePrefix):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	default:
		return nil, errors.New("APP_DATABASE_URL must be a postgres://, postgresql:// or sqlite:// URL")
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// Every new connection to an in-memory database is a fresh database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Event{}, &DailyRollup{}, &User{}, &APIKey{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// EnsureBootstrapAdmin makes sure there is at least one admin user
// corresponding to the bootstrap credentials in config. If a user with
// that username already exists, it is left as-is.
func EnsureBootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&User{}).Where("username = ?", cfg.AdminUser).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Create(&User{
		Username:     cfg.AdminUser,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}).Error
}

// EnsureBootstrapAPIKey registers APP_INGEST_API_KEY as an active ingest key.
// An existing row with the same key is re-activated rather than duplicated.
func EnsureBootstrapAPIKey(db *gorm.DB, cfg *config.Config) error {
	if cfg.IngestAPIKey == "" {
		return nil
	}

	var existing APIKey
	if err := db.Where("key = ?", cfg.IngestAPIKey).Limit(1).Find(&existing).Error; err != nil {
		return err
	}
	if existing.ID != 0 {
		if existing.Active {
			return nil
		}
		return db.Model(&existing).Update("active", true).Error
	}

	return db.Create(&APIKey{
		Name:   "bootstrap",
		Key:    cfg.IngestAPIKey,
		Active: true,
	}).Error
}

// CheckAdmin verifies Basic credentials against the users table. It returns
// the matching admin, or nil when the credentials are wrong.
func CheckAdmin(db *gorm.DB, username, password string) (*User, error) {
	var user User
	if err := db.Where("username = ? AND is_admin = ?", username, true).Limit(1).Find(&user).Error; err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return &user, nil
}

// LookupAPIKey returns the active key with the given value, or nil.
func LookupAPIKey(db *gorm.DB, key string) (*APIKey, error) {
	var apiKey APIKey
	if err := db.Where("key = ? AND active = ?", key, true).Limit(1).Find(&apiKey).Error; err != nil {
		return nil, err
	}
	if apiKey.ID == 0 {
		return nil, nil
	}
	return &apiKey, nil
}
