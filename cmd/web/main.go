package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/projecthub/console/internal/api"
	"github.com/projecthub/console/internal/cache"
	"github.com/projecthub/console/internal/config"
	"github.com/projecthub/console/internal/db"
	httpx "github.com/projecthub/console/internal/http"
	"github.com/projecthub/console/internal/observability"
	"github.com/projecthub/console/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, "console", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer shutdown(context.Background())
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	store, closeStore, err := newSessionStore(ctx, cfg)

	if err != nil {
		log.Error("session store init failed", "store", cfg.SessionStore, "err", err)
		os.Exit(1)
	}

	defer closeStore()

	store = session.InstrumentStore(store, prom)

	sessions := session.NewManager(
		cfg.SessionSecret,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		store,
	)

	apiClient, err := api.New(cfg.APIBaseURL, api.WithLogger(log), api.WithObserver(prom))

	if err != nil {
		log.Error("api client init failed", "err", err)
		os.Exit(1)
	}

	queries := cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	bus := cache.NewBus()

	janitor := session.NewJanitor(store, time.Hour, log)
	go janitor.Run(ctx)

	router := httpx.NewRouter(cfg, apiClient, sessions, queries, bus, prom, reg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("console starting", "port", cfg.Port, "env", cfg.Env, "api", cfg.APIBaseURL)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("console shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shutdownCtx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// newSessionStore picks the backend named by SESSION_STORE. The returned
// closer releases the backing connection pool, if any.
func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case "redis":
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)

		if err != nil {
			return nil, nil, err
		}

		return store, func() { store.Close() }, nil

	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			return nil, nil, err
		}

		return session.NewPostgresStore(pool), pool.Close, nil

	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
