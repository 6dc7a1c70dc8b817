package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"campusinsight/internal/config"
	dbpkg "campusinsight/internal/db"
)

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "ci_" + base64.URLEncoding.EncodeToString(b), nil
}

// maskKey keeps enough of a key to recognise it in a listing.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:7] + "..." + key[len(key)-4:]
}

type apiKeyView struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Key           string    `json:"key"`
	RetentionDays int       `json:"retention_days"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func viewOf(k dbpkg.APIKey, reveal bool) apiKeyView {
	key := k.Key
	if !reveal {
		key = maskKey(key)
	}
	return apiKeyView{ID: k.ID, Name: k.Name, Key: key, RetentionDays: k.RetentionDays, Active: k.Active, CreatedAt: k.CreatedAt}
}

func ListAPIKeys(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var keys []dbpkg.APIKey
		if err := db.WithContext(ctx).Order("id ASC").Find(&keys).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to list API keys")
			return
		}
		views := make([]apiKeyView, 0, len(keys))
		for _, k := range keys {
			views = append(views, viewOf(k, false))
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"keys": views})
	}
}

type createAPIKeyRequest struct {
	Name          string `json:"name"`
	RetentionDays int    `json:"retention_days"`
}

// CreateAPIKey issues a new ingest key. The full key is only returned here.
// Retention is capped at the configured global retention.
func CreateAPIKey(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req createAPIKeyRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "name required")
			return
		}
		if req.RetentionDays < 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid retention_days")
			return
		}

		retentionDays := cfg.RetentionDays
		if req.RetentionDays > 0 && req.RetentionDays < retentionDays {
			retentionDays = req.RetentionDays
		}

		key, err := generateAPIKey()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to generate API key")
			return
		}

		apiKey := &dbpkg.APIKey{
			Name:          req.Name,
			Key:           key,
			Active:        true,
			RetentionDays: retentionDays,
		}
		if err := db.WithContext(ctx).Create(apiKey).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to create API key")
			return
		}

		jsonResponse(ctx, fasthttp.StatusCreated, viewOf(*apiKey, true))
	}
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

// SetActiveAPIKey enables or disables a key. The bootstrap ingest key cannot
// be disabled here since it is re-enabled on every start.
func SetActiveAPIKey(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx, "id")
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid API key ID")
			return
		}
		var req setActiveRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Active == nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "active (true|false) required")
			return
		}

		var apiKey dbpkg.APIKey
		if err := db.WithContext(ctx).First(&apiKey, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "API key not found")
			return
		}
		if cfg.IngestAPIKey != "" && apiKey.Key == cfg.IngestAPIKey && !*req.Active {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot disable the bootstrap API key")
			return
		}

		if err := db.WithContext(ctx).Model(&apiKey).Update("active", *req.Active).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update API key")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, viewOf(apiKey, false))
	}
}
