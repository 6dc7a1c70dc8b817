package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"campusinsight/internal/analytics"
	dbpkg "campusinsight/internal/db"
	"campusinsight/internal/logger"
	"campusinsight/internal/service"
)

// window describes the batch a response was computed over.
type window struct {
	Since  time.Time `json:"since"`
	Now    time.Time `json:"now"`
	Cached bool      `json:"cached,omitempty"`
}

// loadReport falls back to the empty-batch report when the store fails; the
// second result marks such a degraded response.
func loadReport(ctx *fasthttp.RequestCtx, svc *service.InsightService, q service.Query) (*service.Result, bool) {
	res, err := svc.Report(ctx, q)
	if err == nil {
		return res, false
	}

	logger.Get("analytics").WithError(err).WithField("path", string(ctx.Path())).Error("event fetch failed, serving degraded response")
	since, now := svc.Window(q)
	return &service.Result{
		Report: analytics.Analyze(nil, analytics.Options{Now: now, Location: svc.Location()}),
		Since:  since,
		Now:    now,
	}, true
}

func windowOf(res *service.Result) window {
	return window{Since: res.Since, Now: res.Now, Cached: res.Cached}
}

type dimensionResponse struct {
	Dimension analytics.Dimension         `json:"dimension"`
	Metrics   []analytics.DimensionMetric `json:"metrics"`
	Total     int                         `json:"total"`
	Offset    int                         `json:"offset"`
	Limit     int                         `json:"limit"`
	HasMore   bool                        `json:"has_more"`
	Window    window                      `json:"window"`
	Degraded  bool                        `json:"degraded"`
}

// DimensionMetrics serves one sorted, paginated dimension breakdown.
func DimensionMetrics(svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		raw, _ := ctx.UserValue("dimension").(string)
		dim, err := analytics.ParseDimension(raw)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		sortCfg, err := analytics.ParseSortConfig(
			string(ctx.QueryArgs().Peek("sort")),
			string(ctx.QueryArgs().Peek("order")),
		)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		limit, err := intArg(ctx, "limit", analytics.DefaultPageLimit)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		offset, err := intArg(ctx, "offset", 0)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		resp := dimensionResponse{Dimension: dim}
		page, res, err := svc.DimensionPage(ctx, q, dim, sortCfg, offset, limit)
		if err != nil {
			logger.Get("analytics").WithError(err).WithField("dimension", dim).Error("event fetch failed, serving degraded response")
			since, now := svc.Window(q)
			page = analytics.Paginate([]analytics.DimensionMetric{}, offset, limit)
			res = &service.Result{Since: since, Now: now}
			resp.Degraded = true
		}

		resp.Metrics = page.Items
		resp.Total = page.Total
		resp.Offset = page.Offset
		resp.Limit = page.Limit
		resp.HasMore = page.HasMore
		resp.Window = windowOf(res)
		jsonResponse(ctx, fasthttp.StatusOK, resp)
	}
}

// DailySeries serves the per-day activity series.
func DailySeries(svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		res, degraded := loadReport(ctx, svc, q)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"series":   res.Report.Daily,
			"window":   windowOf(res),
			"degraded": degraded,
		})
	}
}

// Stats serves the scalar statistics.
func Stats(svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		res, degraded := loadReport(ctx, svc, q)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"stats":      res.Report.Stats,
			"eventCount": res.Report.EventCount,
			"window":     windowOf(res),
			"degraded":   degraded,
		})
	}
}

// Insights serves the rule-engine output.
func Insights(svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		res, degraded := loadReport(ctx, svc, q)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"insights": res.Report.Insights,
			"window":   windowOf(res),
			"degraded": degraded,
		})
	}
}

// Report serves everything the dashboard renders in one payload.
func Report(svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		res, degraded := loadReport(ctx, svc, q)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"report":   res.Report,
			"window":   windowOf(res),
			"degraded": degraded,
		})
	}
}

// Summary serves the SQL-side headline counts and top lists.
func Summary(store *dbpkg.Store, svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		limit, err := intArg(ctx, "limit", 10)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		since, now := svc.Window(q)
		stats, err := store.SummaryStats(ctx, &since, limit)
		degraded := false
		if err != nil {
			logger.Get("analytics").WithError(err).Error("summary query failed, serving degraded response")
			stats = &dbpkg.SummaryStats{TopSearches: []dbpkg.CountRow{}, TopGroups: []dbpkg.CountRow{}}
			degraded = true
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"summary":  stats,
			"window":   window{Since: since, Now: now},
			"degraded": degraded,
		})
	}
}

// Rollups serves the persisted daily rollups that fall inside the window.
func Rollups(store *dbpkg.Store, svc *service.InsightService) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := parseQuery(ctx)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		since, now := svc.Window(q)
		from := since.In(svc.Location()).Format(analytics.DayLayout)
		to := now.In(svc.Location()).Format(analytics.DayLayout)
		stored, err := store.DailyRollups(ctx, from)
		degraded := false
		if err != nil {
			logger.Get("analytics").WithError(err).Error("rollup query failed, serving degraded response")
			degraded = true
		}
		series := make([]analytics.DailyActivity, 0, len(stored))
		for _, d := range stored {
			if d.Date <= to {
				series = append(series, d)
			}
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"rollups":  series,
			"window":   window{Since: since, Now: now},
			"degraded": degraded,
		})
	}
}
