package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/book-api/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Name        string   `json:"name"`
	Username    string   `json:"username" validate:"notblank,max=100"`
	Password    string   `json:"password" validate:"notblank"`
	Authorities []string `json:"authorities"`
}

// Me returns the authenticated principal.
//
// @Summary      Current principal
// @Tags         user
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  domain.Principal
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create registers a system user in the persistent store. Roles default to
// ROLE_USER when none are given.
//
// @Summary      Create a system user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body      createUserRequest  true  "User"
// @Success      201   {object}  domain.SystemUser
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /users/admin [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), ports.CreateUserInput{
		Name:        req.Name,
		Username:    req.Username,
		Password:    req.Password,
		Authorities: req.Authorities,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}
