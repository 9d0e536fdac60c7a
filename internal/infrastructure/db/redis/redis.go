// Package redis holds the Redis-backed credential cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName = "bookapi"
	// Commands sit on the authentication path and must fail fast.
	cacheTimeout = 500 * time.Millisecond
	pingTimeout  = 5 * time.Second
)

// Config captures the settings for the credential cache connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds each cache command. Zero means cacheTimeout.
	Timeout time.Duration
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = cacheTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		ClientName:   clientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   1,
	}
}

// Connect opens the cache client and pings it once so a misconfigured
// address fails at start-up rather than on the first login.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("credential cache %s: %w", cfg.Addr, err)
	}
	return client, nil
}
