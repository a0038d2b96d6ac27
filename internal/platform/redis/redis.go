// File: internal/platform/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/RachitSrivastava96/virasat-setu/internal/config"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to the session storage backend. Like the database, an
// unreachable session store at startup is fatal: the process must not serve
// traffic it cannot authenticate. The returned cleanup closes the client.
func NewClient(cfg *config.Config) (*goredis.Client, func(), error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing redis client: %v\n", err)
		}
	}

	log.Println("Successfully connected to redis.")
	return client, cleanup, nil
}
