package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"campusinsight/internal/analytics"
	"campusinsight/internal/config"
	dbpkg "campusinsight/internal/db"
	httpctx "campusinsight/internal/http/ctx"
	"campusinsight/internal/logger"
	"campusinsight/internal/metrics"
)

// maxIngestBatch caps the number of events accepted in one request.
const maxIngestBatch = 1000

type IngestEvent struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	SessionID string         `json:"session_id,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

type ingestRequest struct {
	Events []IngestEvent `json:"events"`
}

// IngestHandler accepts a batch of interaction events from a client app.
// Events of unknown type are dropped individually; the request fails only
// when nothing in it is valid.
func IngestHandler(store *dbpkg.Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload ingestRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(payload.Events) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no events provided")
			return
		}
		if len(payload.Events) > maxIngestBatch {
			errResponse(ctx, fasthttp.StatusBadRequest, "too many events in one request")
			return
		}

		now := time.Now()
		retentionDays := cfg.RetentionDays
		client := ""
		if ak, ok := httpctx.APIKeyFromCtx(ctx); ok {
			if ak.RetentionDays > 0 {
				retentionDays = ak.RetentionDays
			}
			client = ak.Name
		}

		events := make([]analytics.Event, 0, len(payload.Events))
		rejected := 0
		for _, ev := range payload.Events {
			createdAt := now
			if ev.Timestamp != nil {
				createdAt = *ev.Timestamp
			}

			e, err := analytics.Decode(strings.TrimSpace(ev.EventType), ev.EventData, ev.SessionID, createdAt)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, analytics.ErrUnknownKind) {
					reason = "unknown_kind"
				}
				metrics.EventsRejected.WithLabelValues(reason).Inc()
				rejected++
				continue
			}
			events = append(events, e)
		}

		if len(events) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no valid events after validation")
			return
		}

		if err := store.InsertEvents(ctx, events, retentionDays, now); err != nil {
			metrics.StoreErrors.WithLabelValues("insert_events").Inc()
			logger.Get("ingest").WithError(err).WithField("client", client).Error("failed to persist events")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist events")
			return
		}

		for _, e := range events {
			metrics.EventsIngested.WithLabelValues(string(e.Kind())).Inc()
		}

		jsonResponse(ctx, fasthttp.StatusAccepted, map[string]any{
			"status":   "accepted",
			"count":    len(events),
			"rejected": rejected,
		})
	}
}
