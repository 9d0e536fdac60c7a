// Package credentials holds the in-process bootstrap credential table that is
// consulted before the persistent user store.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

var ErrMalformedEntry = errors.New("malformed bootstrap user entry")

// Static is a fixed username → user table. It is read-only after construction.
type Static struct {
	users map[string]domain.SystemUser
}

var _ ports.CredentialProvider = (*Static)(nil)

// NewStatic builds the table from users. Later duplicates replace earlier ones.
func NewStatic(users ...domain.SystemUser) *Static {
	s := &Static{users: make(map[string]domain.SystemUser, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// ParseStatic builds the table from "username:digest:ROLE_A,ROLE_B" entries.
// The digest must be a bcrypt hash, optionally prefixed with {bcrypt}.
func ParseStatic(entries []string) (*Static, error) {
	users := make([]domain.SystemUser, 0, len(entries))
	for i, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		u, err := parseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("bootstrap user %d: %w", i, err)
		}
		users = append(users, u)
	}
	return NewStatic(users...), nil
}

func parseEntry(entry string) (domain.SystemUser, error) {
	first := strings.Index(entry, ":")
	last := strings.LastIndex(entry, ":")
	if first <= 0 || last == first {
		return domain.SystemUser{}, ErrMalformedEntry
	}

	username := entry[:first]
	digest := entry[first+1 : last]
	roles := domain.ParseAuthorities(entry[last+1:])

	if len(roles) == 0 {
		return domain.SystemUser{}, fmt.Errorf("%w: %s has no roles", ErrMalformedEntry, username)
	}
	if _, err := bcrypt.Cost([]byte(strings.TrimPrefix(digest, "{bcrypt}"))); err != nil {
		return domain.SystemUser{}, fmt.Errorf("%w: %s digest is not bcrypt", ErrMalformedEntry, username)
	}

	return domain.SystemUser{
		Name:        username,
		Username:    username,
		Password:    digest,
		Authorities: roles,
	}, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) FindByUsername(_ context.Context, username string) (*domain.SystemUser, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Authorities = append([]string(nil), u.Authorities...)
	return &u, nil
}

// Len is the number of configured users.
func (s *Static) Len() int { return len(s.users) }
