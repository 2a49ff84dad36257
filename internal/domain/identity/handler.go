package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingCredentials.Error())
	}
	token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (h *Handler) Me(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	me, err := h.svc.Me(c.Request().Context(), user)
	if errors.Is(err, ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, me)
}
