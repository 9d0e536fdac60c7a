package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

// --- Request / Response types ---

type createBookRequest struct {
	Name   string `json:"name" validate:"notblank"`
	Author string `json:"autor" validate:"notblank"`
}

// replaceBookRequest is validated by the service after the existence check.
type replaceBookRequest struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Author string `json:"autor"`
}

// bookPageResponse mirrors the page envelope clients of the catalogue expect.
type bookPageResponse struct {
	Content          []domain.Book `json:"content"`
	TotalElements    int64         `json:"totalElements"`
	TotalPages       int           `json:"totalPages"`
	Number           int           `json:"number"`
	Size             int           `json:"size"`
	NumberOfElements int           `json:"numberOfElements"`
	First            bool          `json:"first"`
	Last             bool          `json:"last"`
	Empty            bool          `json:"empty"`
}

func toPageResponse(p *ports.BookPage) bookPageResponse {
	totalPages := p.TotalPages()
	return bookPageResponse{
		Content:          p.Items,
		TotalElements:    p.Total,
		TotalPages:       totalPages,
		Number:           p.Page,
		Size:             p.Size,
		NumberOfElements: len(p.Items),
		First:            p.Page == 0,
		Last:             p.Page >= totalPages-1,
		Empty:            len(p.Items) == 0,
	}
}

// --- Query parsing ---

// pageRequest reads ?page=&size=&sort=field,dir. Missing values fall back to
// service defaults; sort may repeat.
func pageRequest(c echo.Context) (ports.PageRequest, error) {
	var req ports.PageRequest

	var err error
	if req.Page, err = intQuery(c, "page"); err != nil {
		return req, err
	}
	if req.Size, err = intQuery(c, "size"); err != nil {
		return req, err
	}

	for _, raw := range c.QueryParams()["sort"] {
		if order, ok := parseSort(raw); ok {
			req.Sort = append(req.Sort, order)
		}
	}
	return req, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" parameter")
	}
	return n, nil
}

func parseSort(raw string) (ports.SortOrder, bool) {
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return ports.SortOrder{}, false
	}

	order := ports.SortOrder{Field: field, Direction: ports.SortAsc}
	if strings.EqualFold(strings.TrimSpace(dir), string(ports.SortDesc)) {
		order.Direction = ports.SortDesc
	}
	return order, true
}
