package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders errors as ErrorResponse. Non-HTTP errors become a
// generic 500 and are logged with the request id.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		rid, _ := c.Get("request_id").(string)
		code := http.StatusInternalServerError
		msg := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Internal != nil && code >= 500 {
				logger.Error().Err(he.Internal).Str("request_id", rid).Msg("request failed")
			}
			switch m := he.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			case nil:
				msg = http.StatusText(code)
			default:
				msg = fmt.Sprintf("%v", m)
			}
		} else {
			logger.Error().Err(err).Str("request_id", rid).Msg("unhandled error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Error: msg, RequestID: rid})
		}
		if werr != nil {
			logger.Error().Err(werr).Str("request_id", rid).Msg("write error response")
		}
	}
}
