package client

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/domain/menu"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clients", h.List)
	api.GET("/clients/:id/profile", h.Profile)
	api.PUT("/clients/:id/norms", h.UpdateNorms)
	api.POST("/clients/:id/menu-assignment", h.AssignMenu)
}

func httpError(err error) error {
	var fe *NormFieldError
	switch {
	case errors.Is(err, auth.ErrClientNotFound):
		return auth.ClientNotFound()
	case errors.Is(err, ErrNoNormFields):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusBadRequest, fe.Error())
	default:
		return menu.HTTPError(err)
	}
}

func (h *Handler) List(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Profile(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Profile(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateNorms(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read request body")
	}
	patch, err := ParseNormsPatch(body)
	if err != nil {
		return httpError(err)
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.UpdateNorms(c.Request().Context(), user, id, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AssignMenu(c echo.Context) error {
	user, err := auth.MustUser(c)
	if err != nil {
		return err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return err
	}
	var req menu.AssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, menu.ErrTemplateRequired.Error())
	}
	p, err := h.svc.AssignMenu(c.Request().Context(), user, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}
