package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"reg-gateway/internal/botverify"
	"reg-gateway/internal/config"
	"reg-gateway/internal/db"
	"reg-gateway/internal/directory"
	apihttp "reg-gateway/internal/http"
	"reg-gateway/internal/quota"
	"reg-gateway/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var quotaStore quota.Store
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		pgStore := quota.NewPostgresStore(pool, cfg.RegistrationLimit)
		if err := pgStore.Init(ctx); err != nil {
			logger.Fatal("quota table init", zap.Error(err))
		}
		quotaStore = pgStore
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
		quotaStore = quota.NewRedisStore(redisClient, cfg.RegistrationLimit)
	default:
		logger.Fatal("no quota backend configured, set REDIS_ADDR or DATABASE_URL")
	}

	verifier := botverify.NewHTTPVerifier(cfg.BotVerifyURL, cfg.BotVerifySecret, logger)
	tokens := directory.NewOAuthTokenProvider(cfg.OAuthTokenURL, cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRefreshToken)
	directoryClient := directory.NewHTTPClient(cfg.DirectoryAPIURL, logger)

	regServ := service.NewRegistrationService(
		logger,
		verifier,
		quotaStore,
		tokens,
		directoryClient,
		cfg.VerificationCode,
		cfg.EmailDomainSuffix,
	)

	regHandler := apihttp.NewRegistrationHandler(logger, regServ, cfg.BotVerifySiteKey, cfg.EmailDomainSuffix)
	statsHandler := apihttp.NewStatsHandler(logger, quotaStore)
	router := apihttp.NewRouter(logger, regHandler, statsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
