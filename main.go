package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatra/auth"
	"yatra/config"
	"yatra/db"
	"yatra/metrics"
	"yatra/middleware"
	"yatra/rdx"
	"yatra/routes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore connects the configured backend and prepares it for traffic.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	var store db.Store
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		store = db.NewMemoryStore()
	} else {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		ms, err := db.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		logger.Info("mongodb connected", zap.String("database", cfg.MongoDB))
		store = ms
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		seed, err := db.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		n, err := db.SeedTemples(ctx, store.Temples(), seed.Temples)
		if err != nil {
			return nil, err
		}
		logger.Info("temple seed applied", zap.String("file", cfg.SeedFile), zap.Int("inserted", n))
	}
	return store, nil
}

// openCache returns nil when Redis is not configured or not reachable.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) *rdx.TempleCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	cache := rdx.NewTempleCache(rdx.NewClient(cfg.RedisAddr, cfg.RedisPassword), cfg.TempleCacheTTL)
	if !cache.Healthy(ctx) {
		logger.Warn("redis unreachable; temple cache disabled", zap.String("addr", cfg.RedisAddr))
		_ = cache.Close()
		return nil
	}
	logger.Info("temple cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TempleCacheTTL))
	return cache
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store unavailable", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache := openCache(ctx, cfg, logger)

	router := routes.NewRouter(routes.Deps{
		Store:   store,
		Tokens:  auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Cache:   cache,
		Metrics: metrics.New(reg),
		Logger:  logger,
		Timeout: cfg.StoreTimeout,
	})

	// CORS → security headers → request id → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "x-auth-token", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}).Handler(middleware.SecurityHeaders(middleware.RequestID(middleware.Logging(logger)(router))))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// in-flight requests are done; release backends before exiting
	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := store.Close(closeCtx); err != nil {
		logger.Warn("store close failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
