package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a service error onto a status code and a JSON error body.
// Client-side errors carry their own message; upstream transport failures are
// summarized so that URLs with credentials never reach the response.
func writeError(c echo.Context, logger *slog.Logger, err error) error {
	status, msg := classifyError(err)

	attrs := []any{
		"err", sanitizeError(err),
		"path", c.Request().URL.Path,
		"status", status,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	return c.JSON(status, errorResponse{Error: msg})
}

func classifyError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, http.StatusText(he.Code)
	}

	switch {
	case errors.Is(err, service.ErrInvalidBody),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrUpstreamRejected):
		return http.StatusBadRequest, sanitizeError(err)
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable, sanitizeError(err)
	case errors.Is(err, service.ErrUpstreamProtocol):
		return http.StatusBadGateway, sanitizeError(err)
	case errors.Is(err, service.ErrUpstreamUnreachable):
		return http.StatusBadGateway, transportMessage(err)
	}
	return http.StatusInternalServerError, "internal server error"
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "upstream request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "client disconnected"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "upstream host unreachable"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "upstream connection failed"
	}
	return "upstream request failed"
}

// sanitizeError redacts credentials from error messages that may contain
// upstream URLs.
func sanitizeError(err error) string {
	return service.Redact(err.Error())
}

// ErrorHandler renders errors that escape the handlers, such as unknown routes
// or oversized bodies, in the same JSON shape the handlers use.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			logger.Error("unhandled error",
				"err", sanitizeError(err),
				"path", c.Request().URL.Path,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, errorResponse{Error: msg})
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}
