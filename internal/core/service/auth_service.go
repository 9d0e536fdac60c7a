package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

// dummyHash is compared against when no provider knows the username so that
// unknown and known users take the same time to reject.
const dummyHash = "$2a$10$QFLje8sda2z69NPE4QGqgepc4BkF.hqzfit9YlO9zz275hONW3oeW"

// AuthService authenticates Basic credentials against an ordered list of
// credential providers. The first provider that knows the user and whose
// stored digest matches wins; a mismatch falls through to the next provider.
type AuthService struct {
	providers []ports.CredentialProvider
	logger    zerolog.Logger
}

func NewAuthService(logger zerolog.Logger, providers ...ports.CredentialProvider) *AuthService {
	return &AuthService{providers: providers, logger: logger}
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	known := false
	for _, p := range s.providers {
		user, err := p.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				continue
			}
			return nil, fmt.Errorf("authenticate via %s: %w", p.Name(), err)
		}
		known = true

		if !CheckPassword(user.Password, password) {
			s.logger.Debug().Str("username", username).Str("provider", p.Name()).Msg("password mismatch")
			continue
		}
		if len(user.Authorities) == 0 {
			s.logger.Warn().Str("username", username).Str("provider", p.Name()).Msg("user has no authorities")
			continue
		}

		return &domain.Principal{
			Username:    user.Username,
			Authorities: append([]string(nil), user.Authorities...),
			Source:      p.Name(),
		}, nil
	}

	if !known {
		_ = CheckPassword(dummyHash, password)
	}
	return nil, domain.ErrInvalidCredentials
}

// UserService creates system users out of band (CLI or admin endpoint).
type UserService struct {
	repo   ports.UserRepository
	cache  ports.CredentialCache
	logger zerolog.Logger
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(repo ports.UserRepository, cache ports.CredentialCache, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, cache: cache, logger: logger}
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error) {
	username := strings.TrimSpace(in.Username)

	var fields []domain.FieldError
	if username == "" {
		fields = append(fields, domain.FieldError{Field: "username", Message: "The username cannot be null or empty"})
	}
	switch {
	case in.Password == "":
		fields = append(fields, domain.FieldError{Field: "password", Message: "The password cannot be null or empty"})
	case len(in.Password) > MaxPasswordBytes:
		fields = append(fields, domain.FieldError{Field: "password", Message: fmt.Sprintf("The password must have at most %d bytes", MaxPasswordBytes)})
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	roles := domain.NormalizeRoles(in.Authorities)
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.SystemUser{
		Name:        strings.TrimSpace(in.Name),
		Username:    username,
		Password:    hash,
		Authorities: roles,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("failed to invalidate cached credentials")
		}
	}

	s.logger.Info().Str("username", username).Strs("authorities", roles).Msg("user created")
	return user, nil
}
