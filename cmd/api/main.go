package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/novatech/repair-desk-backend/internal/adapters/primary/http"
	mw "github.com/novatech/repair-desk-backend/internal/adapters/primary/http/middleware"
	"github.com/novatech/repair-desk-backend/internal/adapters/primary/websocket"
	"github.com/novatech/repair-desk-backend/internal/adapters/secondary/memory"
	"github.com/novatech/repair-desk-backend/internal/adapters/secondary/postgres"
	"github.com/novatech/repair-desk-backend/internal/auth"
	"github.com/novatech/repair-desk-backend/internal/config"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
	"github.com/novatech/repair-desk-backend/internal/core/services"
	"github.com/novatech/repair-desk-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Connect to the store, falling back to demo mode when it stays
	// unreachable and the fallback is enabled.
	ctx := context.Background()

	var pool *pgxpool.Pool
	var orderRepo ports.OrderRepository
	var userRepo ports.UserRepository
	demoMode := false

	pool, err = postgres.ConnectWithRetry(ctx, cfg.Database, logger)
	switch {
	case err == nil:
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		orderRepo = postgres.NewOrderRepository(pool)
		userRepo = postgres.NewUserRepository(pool)
		logger.Info("database connection established")

	case cfg.Database.DemoFallback:
		demoMode = true
		orderRepo = memory.NewSeededOrderRepository()
		logger.Warn("persistent store unreachable, running in demo mode",
			"error", err,
		)

	default:
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Services (Core)
	orderService := services.NewOrderService(orderRepo, hub)

	var authHandler *httpAdapter.AuthHandler
	if userRepo != nil {
		authService := services.NewAuthService(userRepo)
		authHandler = httpAdapter.NewAuthHandler(authService, tokenManager, errorHandler, logger)
	}

	// Handlers (Primary Adapters)
	orderHandler := httpAdapter.NewOrderHandler(orderService, errorHandler, demoMode, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, demoMode, cfg, logger)

	var healthChecker httpAdapter.HealthChecker
	if pool != nil {
		healthChecker = pool
	}
	healthHandler := httpAdapter.NewHealthHandler(healthChecker, demoMode, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting. Demo mode has no
		// user store and no auth surface.
		if authHandler != nil {
			r.Group(func(r chi.Router) {
				if authRateLimiter != nil {
					r.Use(authRateLimiter.Middleware)
				}
				r.Route("/auth", authHandler.RegisterRoutes)
			})
		}

		// WebSocket route (authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			if !demoMode {
				r.Use(mw.JWTMiddleware(tokenManager))
			}
			r.Route("/orders", orderHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "demo_mode", demoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	// Let in-flight event emissions drain before exiting.
	orderService.Shutdown()

	logger.Info("server shutdown complete")
}
