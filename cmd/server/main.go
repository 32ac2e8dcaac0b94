// Package main is the entry point for the dapur API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dapur/internal/config"
	"dapur/internal/domain/auth"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/ledger"
	"dapur/internal/domain/measure"
	"dapur/internal/domain/notify"
	"dapur/internal/domain/sales"
	v1 "dapur/internal/infrastructure/http/v1"
	"dapur/internal/infrastructure/metrics"
	infranotify "dapur/internal/infrastructure/notify"
	"dapur/internal/infrastructure/storage/postgres"
	"dapur/migrations"
	"dapur/pkg/logger"
)

func main() {
	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting dapur server")

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}
	log.Info("migrations applied")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	poolCfg.MaxConns = cfg.Postgres.MaxConns
	poolCfg.MinConns = cfg.Postgres.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	materialRepo := postgres.NewMaterialRepo(txManager)
	menuRepo := postgres.NewMenuRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)
	notificationRepo := postgres.NewNotificationRepo(txManager)

	// --- Unit converter ---
	converter := measure.NewConverter()
	for _, rc := range cfg.Conversions {
		rule, err := parseConversionRule(rc)
		if err != nil {
			log.Fatalw("invalid conversion rule", "name", rc.Name, "error", err)
		}
		if err := converter.Register(rule); err != nil {
			log.Fatalw("failed to register conversion rule", "name", rc.Name, "error", err)
		}
		log.Infow("conversion rule registered",
			"name", rule.Name, "from", rule.From, "to", rule.To, "factor", rule.Factor.String())
	}

	// --- Stock ledger ---
	stockLedger := ledger.New(materialRepo, ledger.Config{
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
		CallTimeout:  cfg.Ledger.CallTimeout,
	})

	// --- Event sinks ---
	sinks := notify.Multi{notify.NewStoreSink(notificationRepo)}
	if cfg.Metrics.Enabled {
		sinks = append(sinks, metrics.NewSink())
	}
	if cfg.NATS.Enabled {
		natsSink, err := infranotify.NewNATSSink(cfg.NATS.URL)
		if err != nil {
			log.Fatalw("failed to connect to NATS", "url", cfg.NATS.URL, "error", err)
		}
		defer natsSink.Close()
		sinks = append(sinks, natsSink)
		log.Infow("NATS sink connected", "url", cfg.NATS.URL)
	}

	// --- Domain services ---
	materialService := material.NewService(materialRepo, stockLedger)
	menuService := menu.NewService(menuRepo, materialRepo, converter, txManager)
	resolver := sales.NewResolver(menuRepo, materialRepo, converter)
	saleService := sales.NewService(saleRepo, resolver, stockLedger, txManager, sinks)
	notificationService := notify.NewService(notificationRepo)

	// --- Auth ---
	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	if cfg.Auth.AccessTokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.Auth.AccessTokenTTL
	}
	jwtService := auth.NewJWTService(jwtCfg)
	authService := auth.NewService(userRepo, jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		JWTValidator:        jwtService,
		AuthService:         authService,
		MaterialService:     materialService,
		MenuService:         menuService,
		SaleService:         saleService,
		NotificationService: notificationService,
		ExposeMetrics:       cfg.Metrics.Enabled,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	return goose.Up(db, ".")
}

func parseConversionRule(rc config.ConversionRule) (measure.Rule, error) {
	from, err := measure.ParseUnit(rc.From)
	if err != nil {
		return measure.Rule{}, err
	}
	to, err := measure.ParseUnit(rc.To)
	if err != nil {
		return measure.Rule{}, err
	}
	factor, err := decimal.NewFromString(rc.Factor)
	if err != nil {
		return measure.Rule{}, fmt.Errorf("invalid factor %q: %w", rc.Factor, err)
	}
	return measure.Rule{Name: rc.Name, From: from, To: to, Factor: factor}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
