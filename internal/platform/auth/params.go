package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ClientNotFound is the single response for missing, malformed and denied
// client ids.
func ClientNotFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, "client not found")
}

// ClientIDParam parses the client id path parameter.
func ClientIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ClientNotFound()
	}
	return id, nil
}
