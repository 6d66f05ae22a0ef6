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

	"signlearn-service/internal/auth"
	"signlearn-service/internal/cache"
	"signlearn-service/internal/config"
	"signlearn-service/internal/db"
	"signlearn-service/internal/repository"
	"signlearn-service/internal/repository/memory"
	"signlearn-service/internal/repository/postgres"
	"signlearn-service/internal/routes"
	"signlearn-service/internal/storage"
	"signlearn-service/internal/websocket"
	"signlearn-service/pkg/logger"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	logger, err := logger.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	var extra []gin.HandlerFunc
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
			extra = append(extra, sentrygin.New(sentrygin.Options{Repanic: true}))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	responseCache, limiter, redisClient := openCache(cfg, logger)
	defer responseCache.Close()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize identity provider", zap.Error(err))
	}

	var stor *storage.Storage
	if cfg.MinIOEndpoint != "" && cfg.MinIOBucket != "" {
		stor, err = storage.NewStorage(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
		if err != nil {
			logger.Warn("failed to connect to minio, uploads disabled", zap.Error(err))
			stor = nil
		}
	} else {
		logger.Warn("MINIO_ENDPOINT or MINIO_BUCKET not set, uploads disabled")
	}

	if cfg.AdminKeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH not set, catalog writes are locked")
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	router, _ := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Store:    store,
		Verifier: verifier,
		Writes:   auth.DefaultWritePolicy(),
		Cache:    responseCache,
		Limiter:  limiter,
		Redis:    redisClient,
		Storage:  stor,
		Hub:      hub,
		Logger:   logger,
	}, extra...)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.String("auth", cfg.AuthProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// openStore selects the repository set. An unreachable Postgres does not stop
// startup; requests run degraded until it answers and the schema is applied.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store, data is not persisted")
		store, _ := memory.New()
		return store, func() {}, nil
	case "postgres":
	default:
		return repository.Store{}, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	database, err := db.Open(cfg.DatabaseURL, cfg.DBQueryTimeout)
	if err != nil {
		return repository.Store{}, nil, err
	}
	if err := database.Ping(ctx); err != nil {
		logger.Warn("database unreachable, starting in degraded mode", zap.Error(err))
	}
	go initSchema(ctx, database, logger)

	return postgres.New(database), func() { database.Close() }, nil
}

func initSchema(ctx context.Context, database *db.DB, logger *zap.Logger) {
	backoff := time.Second
	for {
		err := database.InitSchema(ctx)
		if err == nil {
			logger.Info("database schema ready")
			return
		}
		logger.Warn("failed to initialize schema, retrying", zap.Error(err), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func openCache(cfg *config.Config, logger *zap.Logger) (cache.ResponseCache, cache.RateLimiter, *cache.Redis) {
	if cfg.CacheBackend == "redis" && cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
			return redisClient, redisClient, redisClient
		}
		logger.Warn("failed to connect to redis, falling back to memory cache", zap.Error(err))
	}
	return cache.NewMemory(nil), cache.NewMemoryLimiter(nil), nil
}

func newVerifier(ctx context.Context, cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthProvider {
	case "firebase":
		v, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "jwt":
		v, err := auth.NewJWTVerifier(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}
}
