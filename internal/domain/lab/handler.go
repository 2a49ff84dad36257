package lab

import (
	"errors"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/pkg/pagination"
)

const defaultListLimit = 50

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clients/:id/labs", h.ListTests)
	api.POST("/clients/:id/labs/batch", h.CreateBatch)
	api.GET("/clients/:id/labs/markers", h.Markers)
	api.GET("/clients/:id/labs/series", h.Series)
	api.GET("/clients/:id/labs/summary", h.Summary)
	api.POST("/clients/:id/labs/reports", h.UploadReport)
	api.GET("/clients/:id/labs/reports", h.ListReports)
	api.GET("/clients/:id/labs/reports/:reportId", h.DownloadReport)
}

// request resolves the caller and the client id shared by every route.
func request(c echo.Context) (auth.AuthUser, uuid.UUID, error) {
	user, err := auth.MustUser(c)
	if err != nil {
		return auth.AuthUser{}, uuid.Nil, err
	}
	id, err := auth.ClientIDParam(c, "id")
	if err != nil {
		return auth.AuthUser{}, uuid.Nil, err
	}
	return user, id, nil
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, auth.ErrClientNotFound):
		return auth.ClientNotFound()
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrReportNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "lab report not found")
	case errors.Is(err, ErrReportsDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func (h *Handler) ListTests(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContextWithDefault(c, defaultListLimit)
	items, total, err := h.svc.ListTests(c.Request().Context(), user, id, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*LabTest{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) CreateBatch(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload: items required")
	}
	created, err := h.svc.CreateBatch(c.Request().Context(), user, id, req.Items)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to create lab tests batch: "+ve.Message)
		}
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Markers(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	markers, err := h.svc.Markers(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"markers": markers})
}

func (h *Handler) Series(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	series, err := h.svc.Series(c.Request().Context(), user, id, c.QueryParam("marker"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, series)
}

func (h *Handler) Summary(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	markers, err := h.svc.Summary(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"markers": markers})
}

// -- Lab Reports --

func (h *Handler) UploadReport(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	rep, err := h.svc.UploadReport(c.Request().Context(), user, id, Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) ListReports(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	reports, err := h.svc.ListReports(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	if reports == nil {
		reports = []*LabReport{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h *Handler) DownloadReport(c echo.Context) error {
	user, id, err := request(c)
	if err != nil {
		return err
	}
	reportID, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab report not found")
	}

	rep, body, err := h.svc.OpenReport(c.Request().Context(), user, id, reportID)
	if err != nil {
		return httpError(err)
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": rep.FileName}))
	c.Response().Header().Set("X-Content-SHA256", rep.SHA256)
	return c.Stream(http.StatusOK, rep.ContentType, body)
}
