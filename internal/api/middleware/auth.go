package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/pkg/metrics"
)

const principalKey = "principal"

// Denial is returned by the auth chain when a request is rejected. It wraps
// domain.ErrInvalidCredentials (401) or domain.ErrForbidden (403).
type Denial struct {
	Decision Decision
	Err      error
}

func (d *Denial) Error() string { return fmt.Sprintf("%v: %s", d.Err, d.Decision.Reason) }
func (d *Denial) Unwrap() error { return d.Err }

// Principal returns the identity attached by BasicAuth, or nil.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// BasicAuth resolves HTTP Basic credentials through auth and attaches the
// resulting principal. Failures answer 401 with a Basic challenge.
func BasicAuth(auth ports.Authenticator, realm string, log zerolog.Logger) echo.MiddlewareFunc {
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deny := func(reason string) error {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, challenge)
				return reject(Deny(reason), domain.ErrInvalidCredentials)
			}

			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return deny(ReasonMissingCredentials)
			}
			username, password, ok := c.Request().BasicAuth()
			if !ok || username == "" {
				return deny(ReasonMalformedCredentials)
			}

			principal, err := auth.Authenticate(c.Request().Context(), username, password)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					log.Debug().Str("username", username).Msg("rejected credentials")
					return deny(ReasonBadCredentials)
				}
				return err
			}

			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

func reject(d Decision, err error) error {
	metrics.AuthDecisionsTotal.WithLabelValues("deny", d.Reason).Inc()
	return &Denial{Decision: d, Err: err}
}

// Status is the HTTP status the denial maps to.
func (d *Denial) Status() int {
	if errors.Is(d.Err, domain.ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}
