package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/notify"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/diagnosis/bnb-marketplace/pkg/config"
	"github.com/diagnosis/bnb-marketplace/pkg/database"
	"github.com/diagnosis/bnb-marketplace/pkg/events"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	mw "github.com/diagnosis/bnb-marketplace/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return errors.New("NATS_URL is required for the notify service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database.URL, database.PoolOptions{MaxConns: 4})
	if err != nil {
		return err
	}
	defer pool.Close()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL, "notify")
	if err != nil {
		return err
	}
	defer bus.Close()

	var mailer notify.Mailer = notify.NewDevMailer()
	if !cfg.Email.DevMode && cfg.Email.MailerSendKey != "" {
		mailer = notify.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.From)
	}

	notifier := notify.NewNotifier(repository.NewUserRepository(pool), mailer)
	if err := notifier.Subscribe(bus, cfg.NATS.Queue); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":8086",
		Handler:           newRouter(pool),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting notify service", "port", "8086", "queue", cfg.NATS.Queue)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down notify service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRouter serves the notify service's operational endpoints. The worker
// itself is driven by NATS, not HTTP.
func newRouter(db mw.Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)

	r.Get("/healthz", mw.HealthHandler(db))
	return r
}
