package event

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
	api.GET("/clients/:id/events", h.List)
	api.POST("/clients/:id/events", h.Create)
	api.GET("/events/upcoming", h.Upcoming)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, auth.ErrClientNotFound):
		return auth.ClientNotFound()
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidScheduledAt):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func nonNil(items []*Event) []*Event {
	if items == nil {
		return []*Event{}
	}
	return items
}

func (h *Handler) List(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

func (h *Handler) Create(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingFields.Error())
	}
	e, err := h.svc.Create(c.Request().Context(), user, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Upcoming(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	items, err := h.svc.Upcoming(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}
