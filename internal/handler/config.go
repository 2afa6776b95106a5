package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/config"
)

// publicConfig holds the identifiers the browser needs to start OAuth flows.
// Both values are public by nature; secrets never appear here.
type publicConfig struct {
	SpotifyClientID string `json:"spotifyClientId"`
	LastFMAPIKey    string `json:"lastfmApiKey"`
}

// ConfigHandler serves the public client configuration.
type ConfigHandler struct {
	body publicConfig
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		body: publicConfig{
			SpotifyClientID: cfg.Spotify.ClientID,
			LastFMAPIKey:    cfg.LastFM.APIKey,
		},
	}
}

// Handle returns the public identifiers, cacheable for an hour.
func (h *ConfigHandler) Handle(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.JSON(http.StatusOK, h.body)
}
