package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/book-api/internal/core/domain"
)

func newRouteContext(method, route, target string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(route)
	if p != nil {
		SetPrincipal(c, p)
	}
	return c, rec
}

func adminRule() echo.MiddlewareFunc {
	return Authorize(PathSegmentRequiresRole("admin", domain.RoleAdmin))
}

func TestAuthorize_AdminAllowed(t *testing.T) {
	admin := &domain.Principal{Username: "janaina", Authorities: []string{domain.RoleUser, domain.RoleAdmin}}
	c, rec := newRouteContext(http.MethodDelete, "/books/admin/:id", "/books/admin/1", admin)

	called := false
	handler := adminRule()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusNoContent)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAuthorize_UserForbiddenOnAdminPath(t *testing.T) {
	user := &domain.Principal{Username: "heloisa", Authorities: []string{domain.RoleUser}}
	c, _ := newRouteContext(http.MethodPost, "/books/admin", "/books/admin", user)

	handler := adminRule()(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	requireDenial(t, handler(c), http.StatusForbidden, ReasonMissingRole)
}

func TestAuthorize_UserAllowedOnOpenPath(t *testing.T) {
	user := &domain.Principal{Username: "heloisa", Authorities: []string{domain.RoleUser}}
	// A path parameter whose value is "admin" is not an admin segment.
	c, _ := newRouteContext(http.MethodGet, "/books/find/:name", "/books/find/admin", user)

	called := false
	handler := adminRule()(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestAuthorize_NoPrincipal(t *testing.T) {
	c, _ := newRouteContext(http.MethodGet, "/books", "/books", nil)

	handler := adminRule()(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	requireDenial(t, handler(c), http.StatusUnauthorized, ReasonMissingCredentials)
}

func TestAuthorize_FirstDenialWins(t *testing.T) {
	user := &domain.Principal{Username: "heloisa", Authorities: []string{domain.RoleUser}}
	c, _ := newRouteContext(http.MethodGet, "/books", "/books", user)

	second := false
	mw := Authorize(
		func(echo.Context, *domain.Principal) Decision { return Deny("first") },
		func(echo.Context, *domain.Principal) Decision { second = true; return Allow() },
	)
	err := mw(func(echo.Context) error { return nil })(c)

	requireDenial(t, err, http.StatusForbidden, "first")
	if second {
		t.Fatalf("rules after a denial must not run")
	}
}

func TestPathSegmentRequiresRole_FallsBackToURL(t *testing.T) {
	user := &domain.Principal{Username: "heloisa", Authorities: []string{domain.RoleUser}}
	c, _ := newRouteContext(http.MethodGet, "", "/users/admin", user)

	if d := PathSegmentRequiresRole("admin", domain.RoleAdmin)(c, user); d.Allowed {
		t.Fatalf("expected denial, got %+v", d)
	}
}
