package menu

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

// RegisterRoutes adds the read routes. The assignment route lives with the
// client profile because it responds with the updated profile.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/menu-templates", h.ListTemplates)
	api.GET("/clients/:id/menu", h.ClientMenu)
}

// HTTPError maps service errors to responses.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, auth.ErrClientNotFound):
		return auth.ClientNotFound()
	case errors.Is(err, ErrTemplateNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func (h *Handler) ListTemplates(c echo.Context) error {
	items, err := h.svc.ListTemplates(c.Request().Context())
	if err != nil {
		return HTTPError(err)
	}
	if items == nil {
		items = []*Template{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ClientMenu(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.ClientMenu(c.Request().Context(), user, id)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}
