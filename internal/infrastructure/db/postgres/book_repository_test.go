package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func bookRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "autor"})
}

func TestBookRepository_FindAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`SELECT id, name, autor FROM books ORDER BY id`).
		WillReturnRows(bookRows().AddRow(1, "Duna", "Frank Herbert").AddRow(2, "Neuromancer", "William Gibson"))

	books, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Book{
		{ID: 1, Name: "Duna", Author: "Frank Herbert"},
		{ID: 2, Name: "Neuromancer", Author: "William Gibson"},
	}, books)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`SELECT id, name, autor FROM books WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(bookRows().AddRow(7, "Book", "Neil"))

	book, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, &domain.Book{ID: 7, Name: "Book", Author: "Neil"}, book)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`SELECT id, name, autor FROM books WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(bookRows())

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestBookRepository_FindByNameAndAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`FROM books WHERE name = \$1 ORDER BY id`).
		WithArgs("missing").
		WillReturnRows(bookRows())
	mock.ExpectQuery(`FROM books WHERE autor = \$1 ORDER BY id`).
		WithArgs("Neil").
		WillReturnRows(bookRows().AddRow(3, "Book", "Neil"))

	byName, err := repo.FindByName(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, byName)
	assert.Empty(t, byName)

	byAuthor, err := repo.FindByAuthor(context.Background(), "Neil")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`FROM books ORDER BY name DESC, id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(bookRows().AddRow(4, "C", "x").AddRow(2, "B", "y"))

	books, total, err := repo.FindPage(context.Background(), ports.PageRequest{
		Page: 1, Size: 2, Sort: []ports.SortOrder{{Field: "name", Direction: ports.SortDesc}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, books, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_FindPage_PastEnd(t *testing.T) {
	for _, page := range []int{5, 461168601842738791, 4611686018427387904} {
		db, mock := newMockDB(t)
		repo := NewBookRepository(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		books, total, err := repo.FindPage(context.Background(), ports.PageRequest{Page: page, Size: 20})
		require.NoError(t, err, "page %d", page)
		assert.Equal(t, int64(3), total)
		assert.NotNil(t, books)
		assert.Empty(t, books, "page %d", page)
		assert.NoError(t, mock.ExpectationsWereMet(), "page %d must not issue a SELECT", page)
	}
}

func TestBookRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery(`INSERT INTO books \(name, autor\) VALUES \(\$1, \$2\) RETURNING id`).
		WithArgs("Book", "Neil").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	b := domain.NewBook("Book", "Neil")
	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, int64(42), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_UpdateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	mock.ExpectExec(`UPDATE books SET name = \$2, autor = \$3 WHERE id = \$1`).
		WithArgs(int64(1), "Another", "Neil").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET`).
		WithArgs(int64(9), "Another", "Neil").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM books WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM books WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	assert.NoError(t, repo.Update(ctx, &domain.Book{ID: 1, Name: "Another", Author: "Neil"}))
	assert.ErrorIs(t, repo.Update(ctx, &domain.Book{ID: 9, Name: "Another", Author: "Neil"}), domain.ErrBookNotFound)
	assert.NoError(t, repo.Delete(ctx, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1), domain.ErrBookNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_WrapsDriverErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT id, name, autor FROM books ORDER BY id`).WillReturnError(boom)

	_, err := repo.FindAll(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestOrderBy(t *testing.T) {
	cases := []struct {
		in   []ports.SortOrder
		want string
	}{
		{nil, "id ASC"},
		{[]ports.SortOrder{{Field: "autor", Direction: ports.SortAsc}}, "autor ASC, id ASC"},
		{[]ports.SortOrder{{Field: "AUTHOR", Direction: ports.SortDesc}}, "autor DESC, id ASC"},
		{[]ports.SortOrder{{Field: "id", Direction: ports.SortDesc}}, "id DESC"},
		{[]ports.SortOrder{{Field: "name; DROP TABLE books", Direction: ports.SortAsc}}, "id ASC"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, orderBy(tc.in))
	}
}
