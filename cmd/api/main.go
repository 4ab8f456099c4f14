package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/assistant"
	"github.com/atharvakonge/investment-navigator/internal/config"
	"github.com/atharvakonge/investment-navigator/internal/db"
	"github.com/atharvakonge/investment-navigator/internal/engine"
	"github.com/atharvakonge/investment-navigator/internal/handlers"
	"github.com/atharvakonge/investment-navigator/internal/logger"
	"github.com/atharvakonge/investment-navigator/internal/market"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"github.com/atharvakonge/investment-navigator/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// repository is what the server needs from a persistence substrate
type repository interface {
	store.Repository
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer zl.Sync()

	ctx := context.Background()

	// Initialize persistence
	repo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		zl.Fatal("Failed to open portfolio storage", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer repo.Close()
	zl.Info("Portfolio storage ready", zap.String("driver", cfg.Store.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	portfolio := store.New(repo, cfg.Store.PortfolioKey, store.Defaults{
		Cash:      cfg.Seed.Cash,
		Watchlist: cfg.Seed.Watchlist,
	}, zl)

	// Initialize order processor
	eng := engine.New(portfolio, zl, engine.WithMetrics(metrics))
	processor := engine.NewProcessor(eng, cfg.NumWorkers, zl, metrics)
	processor.Start()
	defer processor.Stop()

	marketOpts := []market.Option{market.WithLogger(zl), market.WithMetrics(metrics)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("Redis unreachable, quote cache will be bypassed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		marketOpts = append(marketOpts, market.WithCache(market.NewRedisQuoteCache(rdb, cfg.QuoteCacheTTL)))
	}
	if cfg.FinnhubAPIKey == "" {
		zl.Warn("FINNHUB_API_KEY not set, market data calls will fail")
	}
	marketData := market.NewClient(cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, marketOpts...)

	var gen assistant.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := assistant.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			zl.Warn("AI assistant disabled", zap.Error(err))
		} else {
			gen = g
		}
	} else {
		zl.Warn("GEMINI_API_KEY not set, AI assistant disabled")
	}

	// Set Gin mode based on environment
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(handlers.Deps{
		Store:               portfolio,
		Orders:              processor,
		Market:              marketData,
		Assistant:           assistant.New(gen, zl, metrics),
		DB:                  repo,
		Log:                 zl,
		Metrics:             metrics,
		ChatRatePerMinute:   cfg.ChatRatePerMinute,
		PriceStreamInterval: cfg.PriceStreamInterval,
		AllowedOrigins:      cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, handlers.RouterOptions{Gatherer: reg}),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server stopped")
}

func openRepository(ctx context.Context, cfg config.StoreConfig) (repository, error) {
	switch cfg.Driver {
	case "memory":
		return db.NewMemoryRepository(), nil

	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo := db.NewSQLiteRepository(conn)
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case "postgres":
		conn, err := db.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		repo := db.NewPostgresRepository(conn)
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
