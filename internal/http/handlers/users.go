package handlers

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campusinsight/internal/config"
	dbpkg "campusinsight/internal/db"
	httpctx "campusinsight/internal/http/ctx"
)

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func ListUsers(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var users []dbpkg.User
		if err := db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to list users")
			return
		}
		views := make([]userView, 0, len(users))
		for _, u := range users {
			views = append(views, userView{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"users": views})
	}
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func CreateUser(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req userRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := &dbpkg.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			IsAdmin:      req.IsAdmin,
		}
		if err := db.WithContext(ctx).Create(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create user (username may already exist)")
			return
		}

		jsonResponse(ctx, fasthttp.StatusCreated, userView{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin})
	}
}

// loadManagedUser resolves the {id} parameter to a user other than the
// bootstrap admin, writing the error response itself when it cannot.
func loadManagedUser(ctx *fasthttp.RequestCtx, db *gorm.DB, cfg *config.Config) (*dbpkg.User, bool) {
	id, ok := pathID(ctx, "id")
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid user ID")
		return nil, false
	}

	var user dbpkg.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		errResponse(ctx, fasthttp.StatusNotFound, "user not found")
		return nil, false
	}
	if user.Username == cfg.AdminUser {
		errResponse(ctx, fasthttp.StatusForbidden, "cannot modify bootstrap admin user")
		return nil, false
	}
	return &user, true
}

func ResetPassword(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := loadManagedUser(ctx, db, cfg)
		if !ok {
			return
		}

		var req userRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusNoContent)
	}
}

func DeleteUser(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := loadManagedUser(ctx, db, cfg)
		if !ok {
			return
		}
		if current, ok := httpctx.UserFromCtx(ctx); ok && current.ID == user.ID {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot delete yourself")
			return
		}

		if err := db.WithContext(ctx).Delete(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete user")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusNoContent)
	}
}

// CurrentUser reports the authenticated admin.
func CurrentUser() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, userView{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin})
	}
}
