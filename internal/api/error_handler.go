package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/api/handler"
	"github.com/bookshelf/book-api/internal/api/middleware"
	"github.com/bookshelf/book-api/internal/core/domain"
)

// ErrorOptions tunes how domain errors map to status codes.
type ErrorOptions struct {
	// NotFoundAsBadRequest answers unknown book ids with 400 instead of 404.
	NotFoundAsBadRequest bool
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, opts ErrorOptions) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, opts, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, opts ErrorOptions, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Auth chain rejections carry their reason code.
	var denial *middleware.Denial
	if errors.As(err, &denial) {
		msg := "authentication required"
		if denial.Status() == http.StatusForbidden {
			msg = "access forbidden"
		}
		return denial.Status(), handler.ErrorResponse{Error: msg, Reason: denial.Decision.Reason}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.ErrorResponse{Error: "validation failed", Fields: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		if opts.NotFoundAsBadRequest {
			return http.StatusBadRequest, handler.ErrorResponse{Error: "book not found"}
		}
		return http.StatusNotFound, handler.ErrorResponse{Error: "book not found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, handler.ErrorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.ErrorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, handler.ErrorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, handler.ErrorResponse{Error: "user already exists"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{Error: "internal server error"}
}
