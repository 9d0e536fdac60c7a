package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

// uniqueViolation is the SQLSTATE raised on a duplicate username.
const uniqueViolation = "23505"

// UserRepository implements ports.UserRepository and ports.CredentialProvider.
type UserRepository struct {
	db *sqlx.DB
}

var (
	_ ports.UserRepository     = (*UserRepository)(nil)
	_ ports.CredentialProvider = (*UserRepository)(nil)
)

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Username    string `db:"username"`
	Password    string `db:"password"`
	Authorities string `db:"authorities"`
}

func (r *UserRepository) Name() string { return "postgres" }

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.SystemUser, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, username, password, authorities FROM system_users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.SystemUser{
		ID:          row.ID,
		Name:        row.Name,
		Username:    row.Username,
		Password:    row.Password,
		Authorities: domain.ParseAuthorities(row.Authorities),
	}, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.SystemUser) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO system_users (name, username, password, authorities) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Name, u.Username, u.Password, domain.JoinAuthorities(u.Authorities),
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
