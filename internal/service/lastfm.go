package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"music-bridge-go/internal/client"
	"music-bridge-go/internal/config"
	"music-bridge-go/internal/model"
)

const lastfmGetSession = "auth.getSession"

// LastFMAuthService exchanges Last.fm auth tokens for session keys.
type LastFMAuthService struct {
	client *client.UpstreamClient
	creds  config.LastFMConfig
	logger *slog.Logger
}

// NewLastFMAuthService creates a LastFMAuthService.
func NewLastFMAuthService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *LastFMAuthService {
	return &LastFMAuthService{
		client: c,
		creds:  cfg.LastFM,
		logger: logger.With("component", "lastfm_auth"),
	}
}

// Configured reports whether the API key and shared secret are available.
func (s *LastFMAuthService) Configured() bool {
	return s.creds.Configured()
}

// Exchange calls auth.getSession with a signed request. The upstream reply,
// including Last.fm's own error documents, is returned untouched.
func (s *LastFMAuthService) Exchange(ctx context.Context, token string) (*model.UpstreamResponse, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("lastfm: %w", ErrNotConfigured)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: token", ErrMissingField)
	}

	sig := Sign(map[string]string{
		"api_key": s.creds.APIKey,
		"method":  lastfmGetSession,
		"token":   token,
	}, s.creds.SharedSecret)

	q := url.Values{}
	q.Set("method", lastfmGetSession)
	q.Set("api_key", s.creds.APIKey)
	q.Set("token", token)
	q.Set("api_sig", sig)
	q.Set("format", "json")

	resp, err := s.client.Get(ctx, s.creds.APIURL+"?"+q.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("lastfm: %w: %w", ErrUpstreamUnreachable, err)
	}

	s.logger.Debug("lastfm session exchange completed", "status", resp.StatusCode)
	return resp, nil
}
