package ports

import (
	"context"

	"github.com/bookshelf/book-api/internal/core/domain"
)

// UserRepository persists system users.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.SystemUser, error)
	// Create inserts u, sets u.ID and returns domain.ErrUserExists on a
	// duplicate username.
	Create(ctx context.Context, u *domain.SystemUser) error
}

// CredentialProvider is one source of credentials consulted during
// authentication. Providers are queried in a fixed order.
type CredentialProvider interface {
	Name() string
	// FindByUsername returns domain.ErrUserNotFound when the provider does
	// not know the user.
	FindByUsername(ctx context.Context, username string) (*domain.SystemUser, error)
}

// CredentialCache is notified when stored credentials change.
type CredentialCache interface {
	Invalidate(ctx context.Context, username string) error
}
