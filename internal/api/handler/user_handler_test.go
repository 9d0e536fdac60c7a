package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookshelf/book-api/internal/api/middleware"
	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

type stubUserService struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error)
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error) {
	return s.createFn(ctx, in)
}

func TestUserHandler_Me(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/me", nil), rec)
	middleware.SetPrincipal(c, &domain.Principal{Username: "janaina", Authorities: []string{domain.RoleAdmin}, Source: "static"})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got domain.Principal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Username != "janaina" || got.Source != "static" {
		t.Fatalf("unexpected principal %+v", got)
	}
}

func TestUserHandler_Create_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error) {
			if in.Username != "bob" || in.Password != "s3cret" || len(in.Authorities) != 1 {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.SystemUser{ID: 4, Name: in.Name, Username: in.Username, Password: "{bcrypt}hash", Authorities: []string{domain.RoleUser}}, nil
		},
	}
	h := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"name":"Bob","username":"bob","password":"s3cret","authorities":["user"]}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/users/admin", body), rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password digest leaked: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_MissingPassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/admin", `{"username":"bob"}`), httptest.NewRecorder())

	if err := h.Create(c); !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserHandler_Create_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.SystemUser, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewUserHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/admin", `{"username":"bob","password":"x"}`), httptest.NewRecorder())

	if err := h.Create(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}
