package handler

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/service"
)

// LastFMAuthHandler serves the Last.fm token to session exchange.
type LastFMAuthHandler struct {
	service *service.LastFMAuthService
	logger  *slog.Logger
}

// NewLastFMAuthHandler creates a LastFMAuthHandler.
func NewLastFMAuthHandler(svc *service.LastFMAuthService, logger *slog.Logger) *LastFMAuthHandler {
	return &LastFMAuthHandler{
		service: svc,
		logger:  logger.With("component", "lastfm_auth_handler"),
	}
}

// Handle reads {"token": "..."} and relays Last.fm's auth.getSession reply,
// status and body, without interpreting it.
func (h *LastFMAuthHandler) Handle(c echo.Context) error {
	if !h.service.Configured() {
		return writeError(c, h.logger, fmt.Errorf("lastfm: %w", service.ErrNotConfigured))
	}

	token, err := stringField(c, "token")
	if err != nil {
		return writeError(c, h.logger, err)
	}

	resp, err := h.service.Exchange(c.Request().Context(), token)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, resp.Body)
}
