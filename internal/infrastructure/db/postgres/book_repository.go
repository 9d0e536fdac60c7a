package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

const bookColumns = "id, name, autor"

// sortColumns whitelists the sortable fields and maps them to columns.
var sortColumns = map[string]string{
	"id":     "id",
	"name":   "name",
	"autor":  "autor",
	"author": "autor",
}

// BookRepository implements ports.BookRepository on PostgreSQL.
type BookRepository struct {
	db *sqlx.DB
}

var _ ports.BookRepository = (*BookRepository)(nil)

func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) FindAll(ctx context.Context) ([]domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	books := []domain.Book{}
	if err := r.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *BookRepository) FindPage(ctx context.Context, req ports.PageRequest) ([]domain.Book, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM books`); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	books := []domain.Book{}
	if int64(req.Offset()) >= total {
		return books, total, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books ORDER BY ` + orderBy(req.Sort) + ` LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &books, query, req.Size, req.Offset()); err != nil {
		return nil, 0, fmt.Errorf("page books: %w", err)
	}
	return books, total, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b domain.Book
	err := r.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return &b, nil
}

func (r *BookRepository) FindByName(ctx context.Context, name string) ([]domain.Book, error) {
	return r.findBy(ctx, "name", name)
}

func (r *BookRepository) FindByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	return r.findBy(ctx, "autor", author)
}

// findBy runs an exact-match lookup on a whitelisted column.
func (r *BookRepository) findBy(ctx context.Context, column, value string) ([]domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	books := []domain.Book{}
	query := `SELECT ` + bookColumns + ` FROM books WHERE ` + column + ` = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &books, query, value); err != nil {
		return nil, fmt.Errorf("find books by %s: %w", column, err)
	}
	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO books (name, autor) VALUES ($1, $2) RETURNING id`,
		b.Name, b.Author,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE books SET name = $2, autor = $3 WHERE id = $1`, b.ID, b.Name, b.Author)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	return requireAffected(res)
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// orderBy renders a deterministic ORDER BY clause from whitelisted fields,
// always ending on id so pages never overlap.
func orderBy(sorts []ports.SortOrder) string {
	parts := make([]string, 0, len(sorts)+1)
	hasID := false
	for _, s := range sorts {
		col, ok := sortColumns[strings.ToLower(s.Field)]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Direction == ports.SortDesc {
			dir = "DESC"
		}
		if col == "id" {
			hasID = true
		}
		parts = append(parts, col+" "+dir)
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}
