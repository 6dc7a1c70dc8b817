package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	dbpkg "campusinsight/internal/db"
	httpctx "campusinsight/internal/http/ctx"
	"campusinsight/internal/logger"
	"campusinsight/internal/service"
)

// MustUser returns the current user from context, or sends 401 and returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetBodyString("unauthorized")
		return nil, false
	}
	return user, true
}

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	log := logger.Get("http")
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.WithFields(logrus.Fields{
			"method":   string(ctx.Method()),
			"path":     string(ctx.Path()),
			"status":   ctx.Response.StatusCode(),
			"duration": time.Since(start).String(),
			"ip":       ctx.RemoteIP().String(),
		}).Info("request")
	}
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetBody(body)
}

// intArg reads a non-negative integer query argument, returning def when absent.
func intArg(ctx *fasthttp.RequestCtx, name string, def int) (int, error) {
	raw := strings.TrimSpace(string(ctx.QueryArgs().Peek(name)))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// parseQuery reads the analysis window shared by every analytics endpoint:
// "days" (1..service.MaxDays) and "now" (RFC3339).
func parseQuery(ctx *fasthttp.RequestCtx) (service.Query, error) {
	var q service.Query

	days, err := intArg(ctx, "days", 0)
	if err != nil {
		return q, err
	}
	if ctx.QueryArgs().Has("days") && (days == 0 || days > service.MaxDays) {
		return q, fmt.Errorf("days must be between 1 and %d", service.MaxDays)
	}
	q.Days = days

	if raw := strings.TrimSpace(string(ctx.QueryArgs().Peek("now"))); raw != "" {
		now, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, fmt.Errorf("now must be an RFC3339 timestamp")
		}
		q.Now = now
	}
	return q, nil
}

// pathID parses a numeric route parameter.
func pathID(ctx *fasthttp.RequestCtx, name string) (uint, bool) {
	s, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
