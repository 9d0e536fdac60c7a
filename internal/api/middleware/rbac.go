package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/pkg/metrics"
)

const (
	ReasonOK                   = "ok"
	ReasonMissingCredentials   = "missing_credentials"
	ReasonMalformedCredentials = "malformed_credentials"
	ReasonBadCredentials       = "bad_credentials"
	ReasonMissingRole          = "missing_role"
)

// Decision is the verdict of a single authorization rule.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func Allow() Decision             { return Decision{Allowed: true, Reason: ReasonOK} }
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Rule decides whether principal may proceed with the request in c.
type Rule func(c echo.Context, principal *domain.Principal) Decision

// Authorize evaluates rules in order; the first denial stops the chain with
// 403. Requests without a principal are rejected with 401.
func Authorize(rules ...Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal(c)
			if p == nil {
				return reject(Deny(ReasonMissingCredentials), domain.ErrInvalidCredentials)
			}
			for _, rule := range rules {
				if d := rule(c, p); !d.Allowed {
					return reject(d, domain.ErrForbidden)
				}
			}
			metrics.AuthDecisionsTotal.WithLabelValues("allow", ReasonOK).Inc()
			return next(c)
		}
	}
}

// RequireRole allows principals holding role.
func RequireRole(role string) Rule {
	return func(_ echo.Context, p *domain.Principal) Decision {
		if p.HasAuthority(role) {
			return Allow()
		}
		return Deny(ReasonMissingRole)
	}
}

// PathSegmentRequiresRole applies RequireRole(role) to routes that contain
// segment as a literal path element, e.g. /books/admin/:id for "admin".
// Path parameters never match, so /books/find/admin stays open.
func PathSegmentRequiresRole(segment, role string) Rule {
	require := RequireRole(role)
	return func(c echo.Context, p *domain.Principal) Decision {
		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		for _, s := range strings.Split(path, "/") {
			if s == segment {
				return require(c, p)
			}
		}
		return Allow()
	}
}
