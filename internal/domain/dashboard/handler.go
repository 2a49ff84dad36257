package dashboard

import (
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
	api.GET("/dashboard/summary", h.Summary)
}

func (h *Handler) Summary(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	s, err := h.svc.Summary(c.Request().Context(), user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard summary").SetInternal(err)
	}
	return c.JSON(http.StatusOK, s)
}
