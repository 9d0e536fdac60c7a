package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/pkg/metrics"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// BookService implements the catalogue use cases on top of a BookRepository.
type BookService struct {
	repo   ports.BookRepository
	logger zerolog.Logger
}

func NewBookService(repo ports.BookRepository, logger zerolog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger}
}

func (s *BookService) ListAll(ctx context.Context) ([]domain.Book, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(books), nil
}

// ListPageable returns one page of books. Page and size are clamped to sane
// bounds; a page past the end yields an empty slice.
func (s *BookService) ListPageable(ctx context.Context, req ports.PageRequest) (*ports.BookPage, error) {
	if req.Page < 0 {
		req.Page = 0
	}
	switch {
	case req.Size <= 0:
		req.Size = DefaultPageSize
	case req.Size > MaxPageSize:
		req.Size = MaxPageSize
	}

	books, total, err := s.repo.FindPage(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ports.BookPage{
		Items: nonNil(books),
		Total: total,
		Page:  req.Page,
		Size:  req.Size,
	}, nil
}

func (s *BookService) FindByName(ctx context.Context, name string) ([]domain.Book, error) {
	books, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return nonNil(books), nil
}

func (s *BookService) FindByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	books, err := s.repo.FindByAuthor(ctx, author)
	if err != nil {
		return nil, err
	}
	return nonNil(books), nil
}

// FindByIDOrFail returns domain.ErrBookNotFound when id is unknown.
func (s *BookService) FindByIDOrFail(ctx context.Context, id int64) (*domain.Book, error) {
	if id <= 0 {
		return nil, domain.ErrBookNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// Save validates and stores a new book. Any ID on the input is ignored.
func (s *BookService) Save(ctx context.Context, in ports.BookInput) (*domain.Book, error) {
	book := domain.NewBook(in.Name, in.Author)
	if err := book.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		s.logger.Error().Err(err).Msg("failed to create book")
		return nil, fmt.Errorf("save book: %w", err)
	}

	metrics.BookMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info().Int64("book_id", book.ID).Str("name", book.Name).Msg("book created")
	return book, nil
}

// Replace overwrites an existing book. The existence check runs first, so an
// unknown id fails with domain.ErrBookNotFound without touching the store.
func (s *BookService) Replace(ctx context.Context, in ports.BookInput) error {
	if _, err := s.FindByIDOrFail(ctx, in.ID); err != nil {
		return err
	}

	book := &domain.Book{ID: in.ID, Name: in.Name, Author: in.Author}
	if err := book.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return fmt.Errorf("replace book %d: %w", in.ID, err)
	}

	metrics.BookMutationsTotal.WithLabelValues("replace").Inc()
	s.logger.Info().Int64("book_id", book.ID).Msg("book replaced")
	return nil
}

// Delete removes an existing book. Deleting an unknown id fails with
// domain.ErrBookNotFound.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	book, err := s.FindByIDOrFail(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, book.ID); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	metrics.BookMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

func nonNil(books []domain.Book) []domain.Book {
	if books == nil {
		return []domain.Book{}
	}
	return books
}
