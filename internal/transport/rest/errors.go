package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"PaperFeed/internal/domain"
)

// statusFor maps domain errors onto HTTP codes. The message of a 5xx is
// never shown to the client.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, msg
	case errors.Is(err, domain.ErrFeedNotReady):
		return http.StatusNotFound, "personalized feed is not ready or empty"
	case errors.Is(err, domain.ErrInconsistentState):
		return http.StatusNotFound, "paper info not found for the next feed entry"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		} else {
			logger.Debug("request rejected", "path", c.Path(), "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, errorResponse{Detail: detail})
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}
