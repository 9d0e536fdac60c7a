package ports

import (
	"context"
	"math"

	"github.com/bookshelf/book-api/internal/core/domain"
)

// SortDirection is the ordering applied to a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOrder is one "field,direction" pair of a page request.
type SortOrder struct {
	Field     string
	Direction SortDirection
}

// PageRequest selects a zero-based page of books.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset is the number of rows skipped before the page starts. It saturates
// at math.MaxInt, which is past the end of any store.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// BookRepository defines persistence operations for books.
// Lookups by id return domain.ErrBookNotFound when no row matches.
type BookRepository interface {
	FindAll(ctx context.Context) ([]domain.Book, error)
	// FindPage returns the requested slice and the total number of books.
	FindPage(ctx context.Context, req PageRequest) ([]domain.Book, int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
	FindByName(ctx context.Context, name string) ([]domain.Book, error)
	FindByAuthor(ctx context.Context, author string) ([]domain.Book, error)
	// Create inserts b and sets b.ID to the assigned identifier.
	Create(ctx context.Context, b *domain.Book) error
	Update(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, id int64) error
}
