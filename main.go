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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventhub/config"
	"eventhub/db"
	"eventhub/models"
	"eventhub/routes"
	"eventhub/utils"
	"eventhub/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error:", err)
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	loc, _ := cfg.Location() // 已在 config.Load 驗證過
	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a random per-process secret; tokens stop working after restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer closeStore()

	// Redis（可選）
	var (
		rdb *redis.Client
		inv *utils.CacheInvalidator
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		inv = utils.NewCacheInvalidator(rdb)
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := routes.NewEngine(logger, cfg.TrustedProxies, cfg.CORSOrigins)
	if err != nil {
		logger.Fatal("server init failed", zap.Error(err))
	}

	routes.RegisterRoutes(ctx, server, routes.Deps{
		Store:       store,
		Redis:       rdb,
		CacheTTL:    cfg.CacheTTL,
		Invalidator: inv,
		Tokens:      utils.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Logger:      logger,
		Location:    loc,
		Now:         time.Now,
		RateRPS:     cfg.RateRPS,
		RateBurst:   cfg.RateBurst,
		CreateQuota: cfg.CreateQuota,
	})

	tmpl, err := web.ParseTemplates()
	if err != nil {
		logger.Fatal("template parse failed", zap.Error(err))
	}
	ui := web.NewUI(web.NewAPIClient(cfg.APIBaseURL, logger), loc, time.Now, logger)
	defer ui.Close()
	ui.Register(server, tmpl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (models.Storage, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Info("using in-memory storage")
		return models.NewMemStorage(), func() {}, nil
	}

	// Postgres: users
	sqldb, err := db.OpenPostgres(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}

	// Mongo: events
	mg, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		_ = sqldb.Close()
		return nil, nil, err
	}
	database := mg.Database(cfg.MongoDB)
	eventsCol := database.Collection("events")
	if err := models.EnsureEventIndexes(ctx, eventsCol); err != nil {
		_ = sqldb.Close()
		_ = mg.Disconnect(context.Background())
		return nil, nil, err
	}

	logger.Info("using persistent storage", zap.String("mongo_db", cfg.MongoDB))
	store := models.Compose(
		models.NewSQLUserStore(sqldb),
		models.NewMongoEventStore(eventsCol, database.Collection("counters")),
	)
	return store, func() {
		_ = sqldb.Close()
		_ = mg.Disconnect(context.Background())
	}, nil
}

func initLogger(level string) *zap.Logger {
	var zcfg zap.Config
	if level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatal("logger init failed:", err)
	}
	return logger
}
