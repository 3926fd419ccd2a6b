package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexandredresch/chatuol/internal/config"
	"github.com/alexandredresch/chatuol/internal/presence"
	"github.com/alexandredresch/chatuol/internal/ratelimit"
	"github.com/alexandredresch/chatuol/internal/server"
	"github.com/alexandredresch/chatuol/internal/ws"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hub := ws.NewHub()
	opts := []server.Option{
		server.WithHub(hub),
		server.WithJoinLimiter(ratelimit.NewLimiter(cfg.JoinRateMax, cfg.JoinRateWindow)),
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		opts = append(opts, server.WithRedis(rdb))
	}

	srv := server.New(cfg.ListenAddr, opts...)

	sweeper := presence.NewSweeper(
		srv.Participants(),
		srv.Messages(),
		presence.WithInterval(cfg.SweepInterval),
		presence.WithThreshold(cfg.StaleThreshold),
		presence.WithPublisher(hub),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweeper.Run(ctx)

	log.Printf("Starting chat server on %s", cfg.ListenAddr)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
