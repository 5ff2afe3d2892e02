// cmd/historian/main.go is an asynchronous historian service that pops action records from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/zheric/setgame/internal/cache"
	"github.com/zheric/setgame/internal/config"
	"github.com/zheric/setgame/internal/database"
	"github.com/zheric/setgame/internal/historian"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("historian needs both REDIS_ADDR and DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	hs := historian.NewService(
		historian.NewRedisQueue(rdb, cfg.HistorianQueue),
		db,
		historian.Options{
			BatchSize:     cfg.HistorianBatchSize,
			FlushInterval: cfg.HistorianFlushInterval,
			Inactivity:    cfg.GameInactivityTimeout,
		},
		logger.WithField("service", "historian"),
	)
	hs.Run(ctx)
}
