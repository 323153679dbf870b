package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tawk/backend/internal/auth"
	"tawk/backend/internal/config"
	"tawk/backend/internal/storage"

	"github.com/redis/go-redis/v9"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <token|expire-calls|online> [args]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <user_id>")
			os.Exit(1)
		}
		token, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL).Issue(os.Args[2])
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)
	case "expire-calls":
		n, err := expireCalls(openStorage(cfg), cfg.RingTimeout)
		if err != nil {
			log.Fatalf("Error expiring calls: %v", err)
		}
		fmt.Printf("%d ringing call(s) marked missed.\n", n)
	case "online":
		ids, err := openStorage(cfg).GetOnlineUserIDs(context.Background())
		if err != nil {
			log.Fatalf("Error listing online users: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func openStorage(cfg *config.Config) *storage.Service {
	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	}
	return storage.NewStorageService(db, rdb)
}

// expireCalls marks calls that have rung longer than timeout as missed. The
// parties are not notified; a running server's sweeper does that.
func expireCalls(s storage.Storage, timeout time.Duration) (int, error) {
	calls, err := s.ExpireRingingCalls(context.Background(), time.Now().Add(-timeout))
	if err != nil {
		return 0, err
	}
	return len(calls), nil
}
