package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/service"
)

// DeezerAuthHandler serves the Deezer authorization code exchange.
type DeezerAuthHandler struct {
	service *service.DeezerAuthService
	logger  *slog.Logger
}

// NewDeezerAuthHandler creates a DeezerAuthHandler.
func NewDeezerAuthHandler(svc *service.DeezerAuthService, logger *slog.Logger) *DeezerAuthHandler {
	return &DeezerAuthHandler{
		service: svc,
		logger:  logger.With("component", "deezer_auth_handler"),
	}
}

// Handle reads {"code": "..."} and answers with the access token, its
// lifetime and the user's display name.
func (h *DeezerAuthHandler) Handle(c echo.Context) error {
	if !h.service.Configured() {
		return writeError(c, h.logger, fmt.Errorf("deezer: %w", service.ErrNotConfigured))
	}

	code, err := stringField(c, "code")
	if err != nil {
		return writeError(c, h.logger, err)
	}

	result, err := h.service.Exchange(c.Request().Context(), code)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, result)
}
