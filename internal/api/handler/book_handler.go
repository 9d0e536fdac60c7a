package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/core/ports"
)

// BookHandler handles HTTP requests for the book catalogue.
type BookHandler struct {
	service ports.BookService
	log     zerolog.Logger
}

func NewBookHandler(service ports.BookService, log zerolog.Logger) *BookHandler {
	return &BookHandler{service: service, log: log}
}

// List returns every book, unpaged.
//
// @Summary      List all books
// @Description  Return not paged
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Success      200  {array}   domain.Book
// @Failure      401  {object}  ErrorResponse
// @Router       /books [get]
func (h *BookHandler) List(c echo.Context) error {
	books, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// ListPageable returns one page of books.
//
// @Summary      List books by page
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Param        page  query     int     false  "Zero-based page index"
// @Param        size  query     int     false  "Page size (default 20, max 2000)"
// @Param        sort  query     string  false  "Sort order, e.g. name,desc"
// @Success      200   {object}  bookPageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /books/listPageable [get]
func (h *BookHandler) ListPageable(c echo.Context) error {
	req, err := pageRequest(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListPageable(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// FindByName returns books whose name matches exactly.
//
// @Summary      Find books by name
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Param        name  path      string  true  "Book name"
// @Success      200   {array}   domain.Book
// @Failure      401   {object}  ErrorResponse
// @Router       /books/find/{name} [get]
func (h *BookHandler) FindByName(c echo.Context) error {
	books, err := h.service.FindByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// FindByAuthor returns books whose author matches exactly.
//
// @Summary      Find books by author
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Param        autor  query     string  true  "Author"
// @Success      200    {array}   domain.Book
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Router       /books/find [get]
func (h *BookHandler) FindByAuthor(c echo.Context) error {
	if !c.QueryParams().Has("autor") {
		return echo.NewHTTPError(http.StatusBadRequest, "missing autor parameter")
	}

	books, err := h.service.FindByAuthor(c.Request().Context(), c.QueryParam("autor"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// Get returns a single book.
//
// @Summary      Get a book
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Param        id   path      int  true  "Book id"
// @Success      200  {object}  domain.Book
// @Failure      400  {object}  ErrorResponse  "Book does not exist"
// @Failure      401  {object}  ErrorResponse
// @Router       /books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	book, err := h.service.FindByIDOrFail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// GetWithPrincipal behaves like Get and logs who asked.
//
// @Summary      Get a book (principal logged)
// @Tags         book
// @Produce      json
// @Security     BasicAuth
// @Param        id   path      int  true  "Book id"
// @Success      200  {object}  domain.Book
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /books/by-id/{id} [get]
func (h *BookHandler) GetWithPrincipal(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	h.log.Info().
		Str("username", principal.Username).
		Strs("authorities", principal.Authorities).
		Str("source", principal.Source).
		Int64("book_id", id).
		Msg("book lookup by principal")

	book, err := h.service.FindByIDOrFail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Create stores a new book.
//
// @Summary      Create a book
// @Tags         book
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body      createBookRequest  true  "Book"
// @Success      201   {object}  domain.Book
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /books/admin [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	book, err := h.service.Save(c.Request().Context(), ports.BookInput{Name: req.Name, Author: req.Author})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, book)
}

// Replace overwrites an existing book.
//
// @Summary      Replace a book
// @Tags         book
// @Accept       json
// @Security     BasicAuth
// @Param        body  body  replaceBookRequest  true  "Book"
// @Success      204
// @Failure      400   {object}  ErrorResponse  "Book does not exist or is invalid"
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /books/admin [put]
func (h *BookHandler) Replace(c echo.Context) error {
	var req replaceBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	in := ports.BookInput{ID: req.ID, Name: req.Name, Author: req.Author}
	if err := h.service.Replace(c.Request().Context(), in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a book.
//
// @Summary      Delete a book
// @Tags         book
// @Security     BasicAuth
// @Param        id   path  int  true  "Book id"
// @Success      204  "Successful operation"
// @Failure      400  {object}  ErrorResponse  "When book does not exist in database"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /books/admin/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
