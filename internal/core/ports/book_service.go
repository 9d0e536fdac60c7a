package ports

import (
	"context"

	"github.com/bookshelf/book-api/internal/core/domain"
)

// BookInput carries the fields accepted on create (ID ignored) and replace.
type BookInput struct {
	ID     int64
	Name   string
	Author string
}

// BookPage is a bounded slice of books plus total-count metadata.
type BookPage struct {
	Items []domain.Book
	Total int64
	Page  int
	Size  int
}

// TotalPages is the number of pages of Size needed to hold Total items.
func (p BookPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// BookService defines the catalogue use cases.
type BookService interface {
	ListAll(ctx context.Context) ([]domain.Book, error)
	ListPageable(ctx context.Context, req PageRequest) (*BookPage, error)
	FindByName(ctx context.Context, name string) ([]domain.Book, error)
	FindByAuthor(ctx context.Context, author string) ([]domain.Book, error)
	FindByIDOrFail(ctx context.Context, id int64) (*domain.Book, error)
	Save(ctx context.Context, in BookInput) (*domain.Book, error)
	Replace(ctx context.Context, in BookInput) error
	Delete(ctx context.Context, id int64) error
}
