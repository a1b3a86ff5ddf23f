package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/wordrush/backend/internal/config"
	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/httpapi"
	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/words"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatal("word provider", zap.Error(err))
	}

	catalog := words.NewCatalog(log)
	if err := catalog.Load(ctx, provider, cfg.WordPack); err != nil {
		log.Fatal("load word corpus", zap.Error(err))
	}

	registry := game.NewRegistry()
	h := hub.NewHub(ctx, registry, catalog, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func newProvider(ctx context.Context, cfg config.Config) (words.Provider, error) {
	if cfg.DatabaseURL == "" {
		return words.BuiltinProvider{}, nil
	}
	store, err := words.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
