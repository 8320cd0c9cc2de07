package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tukio/config"
	"tukio/internal/database"
	"tukio/internal/router"
	"tukio/pkg/mpesa"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.Load()
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	if cfgErr != nil {
		logger.Fatal("invalid configuration", zap.Error(cfgErr))
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	engine := router.Setup(cfg, db, router.Deps{
		Pusher: newMpesaClient(cfg, rdb, logger),
		Redis:  rdb,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg != nil && cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func newMpesaClient(cfg *config.Config, rdb *redis.Client, logger *zap.Logger) *mpesa.Client {
	httpClient := &http.Client{Timeout: cfg.Mpesa.RequestTimeout}

	var store mpesa.TokenStore
	switch cfg.Mpesa.TokenCache {
	case config.TokenCacheMemory:
		store = mpesa.NewMemoryTokenStore()
	case config.TokenCacheRedis:
		store = mpesa.NewRedisTokenStore(rdb, cfg.Mpesa.ShortCode)
	}
	logger.Info("mpesa client configured",
		zap.String("environment", cfg.Mpesa.Environment),
		zap.String("base_url", cfg.MpesaBaseURL()),
		zap.String("token_cache", cfg.Mpesa.TokenCache))

	auth := mpesa.NewAuthenticator(cfg.MpesaBaseURL(), cfg.Mpesa.ConsumerKey, cfg.Mpesa.ConsumerSecret, httpClient, store, logger.Named("mpesa"))
	return mpesa.NewClient(mpesa.Config{
		BaseURL:         cfg.MpesaBaseURL(),
		ShortCode:       cfg.Mpesa.ShortCode,
		PassKey:         cfg.Mpesa.PassKey,
		CallbackURL:     cfg.MpesaCallbackURL(),
		TransactionType: cfg.Mpesa.TransactionType,
		Location:        cfg.MpesaLocation(),
	}, auth, httpClient, logger.Named("mpesa"))
}
