package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/bookshelf/book-api/docs"
	"github.com/bookshelf/book-api/internal/api/handler"
	"github.com/bookshelf/book-api/internal/api/middleware"
	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs. Health checks are keyed by
// dependency name.
type Deps struct {
	Books         ports.BookService
	Users         ports.UserService
	Authenticator ports.Authenticator
	HealthChecks  map[string]handler.Check
	Logger        zerolog.Logger

	Realm                string
	NotFoundAsBadRequest bool
	// Metrics registers the echoprometheus middleware and /metrics.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, ErrorOptions{NotFoundAsBadRequest: d.NotFoundAsBadRequest})

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.BodyLimit("1M"))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("bookapi"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Open routes ---
	healthHandler := handler.NewHealthHandler(d.HealthChecks)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	// Every request is authenticated; any "admin" segment additionally
	// requires ROLE_ADMIN.
	secured := []echo.MiddlewareFunc{
		middleware.BasicAuth(d.Authenticator, d.Realm, d.Logger),
		middleware.Authorize(middleware.PathSegmentRequiresRole("admin", domain.RoleAdmin)),
	}

	bookHandler := handler.NewBookHandler(d.Books, d.Logger.With().Str("component", "book_handler").Logger())
	books := e.Group("/books", secured...)
	books.GET("", bookHandler.List)
	books.GET("/listPageable", bookHandler.ListPageable)
	books.GET("/find/:name", bookHandler.FindByName)
	books.GET("/find", bookHandler.FindByAuthor)
	books.GET("/by-id/:id", bookHandler.GetWithPrincipal)
	books.GET("/:id", bookHandler.Get)
	books.POST("/admin", bookHandler.Create)
	books.PUT("/admin", bookHandler.Replace)
	books.DELETE("/admin/:id", bookHandler.Delete)

	userHandler := handler.NewUserHandler(d.Users)
	users := e.Group("/users", secured...)
	users.GET("/me", userHandler.Me)
	users.POST("/admin", userHandler.Create)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			var ev *zerolog.Event
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			if p := middleware.Principal(c); p != nil {
				ev = ev.Str("principal", p.Username)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
