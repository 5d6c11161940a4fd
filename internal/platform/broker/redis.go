package broker

import (
	"context"
	"fmt"
	"log"
	"time"

	"nomination_ledger/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// Enabled reports whether a Redis address is configured. Without one the
// server keeps sessions and change events in process.
func Enabled() bool {
	return config.AppConfig != nil && config.AppConfig.RedisAddr != ""
}

// NewClient returns a pinged client.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("broker.NewClient(%s): %w", addr, err)
	}
	return client, nil
}

func ConnectRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	RDB, err = NewClient(ctx, config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	log.Println("Successfully connected to Redis!")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		log.Println("Redis connection closed.")
	}
}
