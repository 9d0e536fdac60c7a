package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClientFor builds a client without pinging, for outage tests.
func redisClientFor(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}
