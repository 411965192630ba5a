package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/handlers"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/diagnosis/bnb-marketplace/internal/service"
	"github.com/diagnosis/bnb-marketplace/pkg/auth"
	"github.com/diagnosis/bnb-marketplace/pkg/cache"
	"github.com/diagnosis/bnb-marketplace/pkg/config"
	"github.com/diagnosis/bnb-marketplace/pkg/database"
	"github.com/diagnosis/bnb-marketplace/pkg/events"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	mw "github.com/diagnosis/bnb-marketplace/pkg/middleware"
	"github.com/diagnosis/bnb-marketplace/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("API exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.Enabled)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database.URL, database.PoolOptions{
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Shared cache is optional; the in-process level always runs.
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, using local cache only", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	searchCache := cache.New(rdb, cache.Options{
		Namespace:    "properties",
		LocalMaxSize: cfg.Cache.LocalMaxSize,
		LocalTTL:     cfg.Cache.LocalTTL,
		SharedTTL:    cfg.Cache.SharedTTL,
	})

	// Connect to event bus
	var publisher events.Publisher = events.NoopBus{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL, cfg.ServiceName)
		if err != nil {
			return err
		}
		publisher = bus
	}
	defer publisher.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	propertyRepo := repository.NewPropertyRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// Initialize services
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, issuer)
	propertyService := service.NewPropertyService(propertyRepo, searchCache)
	bookingService := service.NewBookingService(bookingRepo, propertyRepo, idempotencyRepo, publisher)

	h := handlers.New(authService, propertyService, bookingService, handlers.Options{
		SecureCookies: cfg.IsProduction(),
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(cfg.ServiceName))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.CORS(cfg.Server.FrontendOrigin))
	r.Use(mw.Health(pool))
	h.Mount(r, mw.RateLimit(cfg.Server.AuthRateRPS, cfg.Server.AuthRateBurst))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting API", "port", cfg.Server.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := idempotencyRepo.CleanupExpired(gctx)
				if err != nil {
					logger.Error("Idempotency cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("Expired idempotency keys removed", "count", n)
				}
			}
		}
	})

	return g.Wait()
}
