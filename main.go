package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"campusinsight/internal/config"
	"campusinsight/internal/db"
	"campusinsight/internal/http/handlers"
	appmw "campusinsight/internal/http/middleware"
	"campusinsight/internal/logger"
	"campusinsight/internal/metrics"
	"campusinsight/internal/service"
)

func main() {
	_ = godotenv.Load()

	log := logger.Get("main")

	cfg, warnings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		log.WithError(err).Warn("unknown log level, using info")
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.WithError(err).Fatal("failed to ensure bootstrap admin")
	}
	if cfg.IngestAPIKey != "" {
		if err := db.EnsureBootstrapAPIKey(sqlDB, cfg); err != nil {
			log.WithError(err).Warn("failed to register bootstrap ingest key")
		} else {
			log.Info("bootstrap ingest key registered")
		}
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	workers, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	db.StartRetentionWorker(workers, sqlDB)
	db.StartRollupWorker(workers, sqlDB, cfg.Location())

	store := db.NewStore(sqlDB)
	svc := service.NewInsightService(store, service.Options{
		Location: cfg.Location(),
		Window:   cfg.AnalyticsWindow(),
		TTL:      cfg.CacheTTL(),
	})

	srv := &fasthttp.Server{
		Name:         "campusinsight",
		Handler:      newHandler(cfg, sqlDB, store, svc, prometheus.DefaultGatherer),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("campusinsight listening")
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopWorkers()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}

// newHandler builds the full route table behind the global middleware chain:
// request logger, then CORS, then the router.
func newHandler(cfg *config.Config, sqlDB *gorm.DB, store *db.Store, svc *service.InsightService, gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	r := router.New()
	admin := appmw.AdminAuth(sqlDB)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.POST("/v1/events", appmw.BearerAuth(sqlDB)(handlers.IngestHandler(store, cfg)))

	r.GET("/v1/analytics/dimensions/{dimension}", admin(handlers.DimensionMetrics(svc)))
	r.GET("/v1/analytics/daily", admin(handlers.DailySeries(svc)))
	r.GET("/v1/analytics/stats", admin(handlers.Stats(svc)))
	r.GET("/v1/analytics/insights", admin(handlers.Insights(svc)))
	r.GET("/v1/analytics/report", admin(handlers.Report(svc)))
	r.GET("/v1/analytics/summary", admin(handlers.Summary(store, svc)))
	r.GET("/v1/analytics/rollups", admin(handlers.Rollups(store, svc)))

	r.GET("/v1/metrics", admin(handlers.MetricsHandler(gatherer)))

	r.GET("/v1/admin/me", admin(handlers.CurrentUser()))
	r.GET("/v1/admin/apikeys", admin(handlers.ListAPIKeys(sqlDB)))
	r.POST("/v1/admin/apikeys", admin(handlers.CreateAPIKey(sqlDB, cfg)))
	r.POST("/v1/admin/apikeys/{id}/active", admin(handlers.SetActiveAPIKey(sqlDB, cfg)))
	r.GET("/v1/admin/users", admin(handlers.ListUsers(sqlDB)))
	r.POST("/v1/admin/users", admin(handlers.CreateUser(sqlDB)))
	r.POST("/v1/admin/users/{id}/password", admin(handlers.ResetPassword(sqlDB, cfg)))
	r.DELETE("/v1/admin/users/{id}", admin(handlers.DeleteUser(sqlDB, cfg)))

	return handlers.RequestLogger(appmw.CORS(cfg.CORSOrigin)(r.Handler))
}
