// Package handler holds the echo handlers of the portal gateway.  Every
// response, success or failure, is written as an envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/logging"
)

// envelope is the JSON body of every response.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data, Message: msg})
}

func updated(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: msg})
}

func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: msg})
}

// list keeps empty results serialized as [] instead of null.
func list[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// ErrorHandler converts handler errors into envelopes.  Errors raised by
// echo itself keep their status; anything that is not an *apperr.Error is
// reported as a generic 500.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()
		status, body := toEnvelope(err)
		// store failures were already logged by the service with their cause
		if status >= http.StatusInternalServerError && !apperr.Is(err, apperr.KindStore) {
			log.Error(ctx, "request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"error", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn(ctx, "write error response", "error", werr)
		}
	}
}

func toEnvelope(err error) (int, envelope) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, envelope{Error: httpErrorMessage(he)}
	}

	ae := apperr.From(err)
	out := envelope{Error: ae.Message}
	if len(ae.Fields) > 0 {
		out.Fields = make(map[string]string, len(ae.Fields))
		for _, f := range ae.Fields {
			out.Fields[f.Field] = f.Message
		}
	}
	return ae.Status(), out
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch he.Code {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusRequestEntityTooLarge:
		return "Request body too large"
	}
	if he.Code >= http.StatusInternalServerError {
		return "An unexpected error occurred"
	}
	if s, ok := he.Message.(string); ok && s != "" {
		return s
	}
	return http.StatusText(he.Code)
}
