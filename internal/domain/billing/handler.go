package billing

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
	api.GET("/billing/plan", h.Plan)
}

func (h *Handler) Plan(c echo.Context) error {
	if _, err := auth.MustUser(c); err != nil {
		return err
	}
	p, err := h.svc.CurrentPlan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load billing plan").SetInternal(err)
	}
	return c.JSON(http.StatusOK, p)
}
