package redis

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// ConnectOptional returns nil when Redis is not configured or not reachable; snapshots
// and cross-instance frames are then disabled.
func ConnectOptional(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("[REDIS] REDIS_URL empty; snapshots and pub/sub disabled")
		return nil
	}
	client, err := Connect(redisURL)
	if err != nil {
		log.Printf("[REDIS] Redis unavailable, continuing without it: %v", err)
		return nil
	}
	return client
}
