package domain

import (
	"errors"
	"strings"
)

var ErrBookNotFound = errors.New("book not found")

// Book is the catalogue aggregate. The author field keeps the "autor" wire
// name used by existing clients.
type Book struct {
	ID     int64  `json:"id" db:"id" bson:"_id"`
	Name   string `json:"name" db:"name" bson:"name"`
	Author string `json:"autor" db:"autor" bson:"autor"`
}

// NewBook builds an unsaved book. Validation happens in Validate.
func NewBook(name, author string) *Book {
	return &Book{Name: name, Author: author}
}

// Validate reports blank name or author as a *ValidationError.
func (b *Book) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(b.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "The name cannot be null or empty"})
	}
	if strings.TrimSpace(b.Author) == "" {
		fields = append(fields, FieldError{Field: "autor", Message: "The autor cannot be null or empty"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
