package ports

import (
	"context"

	"github.com/bookshelf/book-api/internal/core/domain"
)

// Authenticator resolves Basic credentials to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Principal, error)
}

// CreateUserInput carries the fields for out-of-band user creation.
type CreateUserInput struct {
	Name        string
	Username    string
	Password    string
	Authorities []string
}

// UserService manages system users.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.SystemUser, error)
}
