package main

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ethcdm/faucet/adapters/chain"
	"github.com/ethcdm/faucet/adapters/events"
	"github.com/ethcdm/faucet/adapters/ledger"
	"github.com/ethcdm/faucet/adapters/lock"
	"github.com/ethcdm/faucet/adapters/reconcile"
	"github.com/ethcdm/faucet/adapters/store"
	"github.com/ethcdm/faucet/internal/config"
	"github.com/ethcdm/faucet/service"
	transport "github.com/ethcdm/faucet/transport/http"
)

func main() {
	// Missing .env is fine; production configures through real env vars.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to parse redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database handle", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	defer sqlDB.Close()

	claimLedger, err := ledger.NewGormLedger(db)
	if err != nil {
		log.Fatal("failed to migrate claim ledger", zap.Error(err))
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Fatal("failed to create event publisher", zap.Error(err))
	}

	disburser, err := chain.NewEthDisburser(cfg.FaucetKey, cfg.Networks)
	if err != nil {
		log.Fatal("failed to dial network rpcs", zap.Error(err))
	}
	defer disburser.Close()

	faucetService := service.NewFaucetService(
		store.NewRedisStore(redisClient),
		claimLedger,
		lock.NewRedisLocker(redisClient),
		disburser,
		events.NewWatermillPublisher(publisher),
		reconcile.NewRedisQueue(redisClient),
		cfg,
		log,
	)
	statsService := service.NewStatsService(claimLedger, disburser, cfg, log)

	handlers := transport.NewFaucetHandlers(faucetService, statsService)
	router := transport.SetupRouter(handlers, cfg.AdminJWTSecret)

	log.Info("faucet listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("custodial_address", cfg.FaucetAddress.Hex()))

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
