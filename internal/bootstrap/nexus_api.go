package bootstrap

import (
	"context"
	"strings"
	"time"

	"nexus_server/adapter/in/http"
	"nexus_server/config"
	"nexus_server/infra/middleware"
	"nexus_server/pkg/logger"
	"nexus_server/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// drainTimeout bounds how long in-flight syncs may finish after shutdown starts.
const drainTimeout = 30 * time.Second

// NewAPI builds the HTTP app and starts the sync workers behind it.
// The returned cleanup drains the workers and closes every connection.
func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "nexus-api",
		Pretty:  cfg.IsDevelopment(),
	})
	for _, w := range cfg.Warnings() {
		logger.Warn("[Bootstrap] %s", w)
	}

	deps, closeDeps, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	if err := deps.WorkerPool.Start(); err != nil {
		closeDeps()
		return nil, nil, err
	}
	cleanup := func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := deps.WorkerPool.Stop(drainCtx); err != nil {
			logger.WithError(err).Warn("[Bootstrap] worker pool stopped with errors")
		}
		closeDeps()
	}

	return newApp(cfg, deps), cleanup, nil
}

func newApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	// Order matters: recovery first, logging after the request id is set.
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	origins, credentials := corsOrigins(cfg)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: credentials,
		MaxAge:           86400,
	}))

	app.Use(deps.Sessions.Load())

	health := http.NewHealthHandler(
		http.HealthCheck{Name: "postgres", Ping: deps.DB.Ping},
		redisCheck(deps),
	).WithStats(func() map[string]any {
		return map[string]any{
			"database":  metrics.SnapshotDB(deps.SQLDB.DB).ToMap(),
			"sync_jobs": deps.WorkerPool.GetMetrics().ToMap(),
			"model":     deps.Model.Name,
		}
	})
	health.Register(app)

	http.NewAuthHandler(deps.AuthService, deps.Sessions, cfg.FrontendURL, cfg.FrontendRedirectPath).Register(app)
	http.NewInterviewHandler(deps.InterviewService, deps.FeedbackService).Register(app)
	http.NewSyncHandler(deps.SyncRunner).Register(app)

	return app
}

func redisCheck(deps *Dependencies) http.HealthCheck {
	check := http.HealthCheck{Name: "redis"}
	if deps.Redis != nil {
		check.Ping = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	return check
}

// corsOrigins never pairs a wildcard origin with credentials.
func corsOrigins(cfg *config.Config) (string, bool) {
	origins := strings.Join(cfg.AllowedOrigins, ",")
	if origins != "" && origins != "*" {
		return origins, true
	}
	if cfg.IsProduction() {
		return "", false
	}
	return "http://localhost:3000,http://127.0.0.1:3000", true
}
