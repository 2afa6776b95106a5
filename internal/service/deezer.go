package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"music-bridge-go/internal/client"
	"music-bridge-go/internal/config"
	"music-bridge-go/internal/model"
)

// snippetLen bounds how much of an unexpected upstream reply is echoed back.
const snippetLen = 200

// DeezerAuthService exchanges Deezer OAuth codes for access tokens.
type DeezerAuthService struct {
	client   *client.UpstreamClient
	creds    config.DeezerConfig
	endpoint oauth2.Endpoint
	apiURL   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewDeezerAuthService creates a DeezerAuthService.
func NewDeezerAuthService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *DeezerAuthService {
	return &DeezerAuthService{
		client: c,
		creds:  cfg.Deezer,
		endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Deezer.AuthURL,
			TokenURL: cfg.Deezer.TokenURL,
		},
		apiURL: strings.TrimRight(cfg.Deezer.APIURL, "/"),
		logger: logger.With("component", "deezer_auth"),
		now:    time.Now,
	}
}

// Configured reports whether the app id and secret are available.
func (s *DeezerAuthService) Configured() bool {
	return s.creds.Configured()
}

// Exchange trades an authorization code for an access token, then makes one
// best-effort profile lookup to recover the user's display name.
func (s *DeezerAuthService) Exchange(ctx context.Context, code string) (*model.ExchangeResult, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("deezer: %w", ErrNotConfigured)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: code", ErrMissingField)
	}

	tok, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	result := &model.ExchangeResult{
		AccessToken: tok.AccessToken,
		UserName:    s.fetchUserName(ctx, tok),
	}
	if tok.ExpiresIn != 0 {
		expires := tok.ExpiresIn
		result.Expires = &expires
	}
	return result, nil
}

func (s *DeezerAuthService) exchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	q := url.Values{}
	q.Set("app_id", s.creds.AppID)
	q.Set("secret", s.creds.AppSecret)
	q.Set("code", code)
	q.Set("output", "json")

	resp, err := s.client.Get(ctx, s.endpoint.TokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("deezer token endpoint: %w: %w", ErrUpstreamUnreachable, err)
	}

	fields, err := ParseTokenResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deezer token endpoint: %w: %w", ErrUpstreamProtocol, err)
	}

	if e, ok := fields["error"]; ok && e != nil && e != "" {
		return nil, fmt.Errorf("%w: Deezer token exchange failed: %s", ErrUpstreamRejected, upstreamErrorMessage(e))
	}

	accessToken := stringField(fields, "access_token")
	if accessToken == "" {
		return nil, fmt.Errorf("%w: Deezer did not return an access token. Response: %s",
			ErrUpstreamProtocol, snippet(fields))
	}

	tok := &oauth2.Token{AccessToken: accessToken}
	if n, err := strconv.ParseInt(stringField(fields, "expires"), 10, 64); err == nil && n > 0 {
		tok.ExpiresIn = n
		tok.Expiry = s.now().Add(time.Duration(n) * time.Second)
	}
	tok = tok.WithExtra(fields)

	s.logger.Debug("deezer token exchanged",
		"expires_in", tok.ExpiresIn,
		"expiry", tok.Expiry,
	)
	return tok, nil
}

// deezerUser is the subset of /user/me used for the display name.
type deezerUser struct {
	Name      string `json:"name"`
	FirstName string `json:"firstname"`
}

// fetchUserName never fails: any problem degrades to an empty name.
func (s *DeezerAuthService) fetchUserName(ctx context.Context, tok *oauth2.Token) string {
	q := url.Values{}
	q.Set("access_token", tok.AccessToken)

	resp, err := s.client.Get(ctx, s.apiURL+"/user/me?"+q.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		s.logger.Warn("could not fetch deezer user profile", "err", Redact(err.Error()))
		return ""
	}

	var user deezerUser
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		s.logger.Warn("could not decode deezer user profile",
			"status", resp.StatusCode,
			"err", err,
		)
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.FirstName
}

func snippet(fields map[string]any) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	if len(b) > snippetLen {
		b = b[:snippetLen]
	}
	return string(b)
}
