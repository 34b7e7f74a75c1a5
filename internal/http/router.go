package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/bidashboard/internal/auth"
	"github.com/geocoder89/bidashboard/internal/cache"
	"github.com/geocoder89/bidashboard/internal/config"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/http/handlers"
	"github.com/geocoder89/bidashboard/internal/http/middlewares"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "bidashboard-api"

// Dependencies are the stores and collaborators the handlers run against. Cache and
// Prom are optional; Rand and Now default to the process globals.
type Dependencies struct {
	Users   handlers.UserStore
	Metrics handlers.MetricsStore
	Cache   cache.Store
	Tokens  *auth.Manager
	Prom    *observability.Prom
	Rand    metric.Random
	Now     func() time.Time
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Metrics, deps.Metrics)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/api/test-db", h.TestDB)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, cfg.BcryptCost)
	dashboardHandler := handlers.NewDashboardHandler(deps.Metrics, deps.Cache, deps.Prom)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Metrics, deps.Cache, deps.Prom, deps.Rand, deps.Now)
	adminHandler := handlers.NewAdminHandler(deps.Metrics, deps.Cache, deps.Prom, deps.Rand, deps.Now)

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	requireAuth := middlewares.NewAuthMiddleware(deps.Tokens).RequireAuth()

	api := r.Group("/api")

	// public auth routes
	api.POST("/register", authLimiter.Middleware(middlewares.KeyByIP), authHandler.Register)
	api.POST("/login", authLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)

	dashboard := api.Group("/dashboard", requireAuth)
	dashboard.GET("/data", dashboardHandler.Data)
	dashboard.GET("/summary", dashboardHandler.Summary)
	dashboard.GET("/filters", dashboardHandler.Filters)
	dashboard.GET("/export", dashboardHandler.Export)

	analytics := api.Group("/analytics", requireAuth)
	analytics.GET("/growth", analyticsHandler.Growth)
	analytics.GET("/trends", analyticsHandler.Trends)
	analytics.GET("/forecast", analyticsHandler.Forecast)

	// any authenticated user may mutate; there are no roles
	admin := api.Group("/admin", requireAuth)
	admin.POST("/add-record", adminHandler.AddRecord)
	admin.POST("/generate-data", adminHandler.GenerateData)
	admin.POST("/apply-scenario", adminHandler.ApplyScenario)
	admin.POST("/reset-data", adminHandler.ResetData)
	admin.POST("/modify-data", adminHandler.ModifyData)

	return r
}
