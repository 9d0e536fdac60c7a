package handler

import "github.com/bookshelf/book-api/internal/core/domain"

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Reason string              `json:"reason,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}
