// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dapur/internal/domain/auth"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/notify"
	"dapur/internal/domain/sales"
	"dapur/internal/infrastructure/http/v1/handlers"
	"dapur/internal/infrastructure/http/v1/middleware"
	"dapur/internal/infrastructure/storage/postgres"
	"dapur/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService         *auth.Service
	MaterialService     *material.Service
	MenuService         *menu.Service
	SaleService         *sales.Service
	NotificationService *notify.Service

	// ExposeMetrics enables the Prometheus scrape endpoint.
	ExposeMetrics bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.ExposeMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

		publicAuth := v1.Group("/auth")
		protectedAuth := v1.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		materialHandler := handlers.NewMaterialHandler(base, cfg.MaterialService)
		materialHandler.RegisterRoutes(protected.Group("/materials"))

		menuHandler := handlers.NewMenuHandler(base, cfg.MenuService)
		menuHandler.RegisterRoutes(protected.Group("/menus"))

		saleHandler := handlers.NewSaleHandler(base, cfg.SaleService, cfg.MenuService)
		saleHandler.RegisterRoutes(protected.Group("/sales"))

		notificationHandler := handlers.NewNotificationHandler(base, cfg.NotificationService)
		notificationHandler.RegisterRoutes(protected.Group("/notifications"))
	}

	return router
}
