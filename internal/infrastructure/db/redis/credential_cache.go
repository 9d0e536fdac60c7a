package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/pkg/metrics"
)

// CachedCredentials fronts a CredentialProvider with Redis.
// Key format: credentials:<username>. Unknown users are never cached.
type CachedCredentials struct {
	client redis.Cmdable
	next   ports.CredentialProvider
	ttl    time.Duration
	log    zerolog.Logger
}

var (
	_ ports.CredentialProvider = (*CachedCredentials)(nil)
	_ ports.CredentialCache    = (*CachedCredentials)(nil)
)

// NewCachedCredentials wraps next with a read-through cache expiring after ttl.
func NewCachedCredentials(client redis.Cmdable, next ports.CredentialProvider, ttl time.Duration, log zerolog.Logger) *CachedCredentials {
	return &CachedCredentials{client: client, next: next, ttl: ttl, log: log}
}

type cachedUser struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Authorities []string `json:"authorities"`
}

func (c *CachedCredentials) Name() string { return c.next.Name() }

// FindByUsername serves from Redis when possible. Cache failures degrade to
// the wrapped provider rather than failing authentication.
func (c *CachedCredentials) FindByUsername(ctx context.Context, username string) (*domain.SystemUser, error) {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal(raw, &cu); jsonErr == nil {
			metrics.CredentialCacheTotal.WithLabelValues("hit").Inc()
			return &domain.SystemUser{
				ID:          cu.ID,
				Name:        cu.Name,
				Username:    cu.Username,
				Password:    cu.Password,
				Authorities: cu.Authorities,
			}, nil
		}
		metrics.CredentialCacheTotal.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CredentialCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CredentialCacheTotal.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("username", username).Msg("credential cache read failed")
	}

	user, err := c.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedUser{
		ID:          user.ID,
		Name:        user.Name,
		Username:    user.Username,
		Password:    user.Password,
		Authorities: user.Authorities,
	})
	if err == nil {
		if setErr := c.client.Set(ctx, c.key(username), payload, c.ttl).Err(); setErr != nil {
			c.log.Warn().Err(setErr).Str("username", username).Msg("credential cache write failed")
		}
	}
	return user, nil
}

// Invalidate drops the cached entry for username.
func (c *CachedCredentials) Invalidate(ctx context.Context, username string) error {
	if err := c.client.Del(ctx, c.key(username)).Err(); err != nil {
		return fmt.Errorf("invalidate credentials: %w", err)
	}
	return nil
}

func (c *CachedCredentials) key(username string) string {
	return fmt.Sprintf("credentials:%s", username)
}
