// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/music-bridge/config.toml",
	"configs/config.toml",
}

// placeholderSecret is the value shipped in the example config.
const placeholderSecret = "CHANGE_ME"

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config             string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host               string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port               int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel           string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	DeezerAppID        string `kong:"help='Deezer application id (overrides config).',env='DEEZER_APP_ID'"`
	DeezerAppSecret    string `kong:"help='Deezer application secret (overrides config).',env='DEEZER_APP_SECRET'"`
	LastFMAPIKey       string `kong:"name='lastfm-api-key',help='Last.fm API key (overrides config).',env='LASTFM_API_KEY'"`
	LastFMSharedSecret string `kong:"name='lastfm-shared-secret',help='Last.fm shared secret (overrides config).',env='LASTFM_SHARED_SECRET'"`
	SpotifyClientID    string `kong:"help='Spotify client id exposed to the frontend (overrides config).',env='SPOTIFY_CLIENT_ID'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Deezer   DeezerConfig   `toml:"deezer"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// DeezerConfig holds the Deezer application credentials and endpoints.
type DeezerConfig struct {
	AppID      string `toml:"app_id"`
	AppSecret  string `toml:"app_secret"`
	AuthURL    string `toml:"auth_url"`
	TokenURL   string `toml:"token_url"`
	APIURL     string `toml:"api_url"`
	GatewayURL string `toml:"gateway_url"`
	SiteURL    string `toml:"site_url"`
}

// Configured reports whether both halves of the app credential are present.
func (d DeezerConfig) Configured() bool {
	return d.AppID != "" && d.AppSecret != ""
}

// LastFMConfig holds the Last.fm API credentials.
type LastFMConfig struct {
	APIKey       string `toml:"api_key"`
	SharedSecret string `toml:"shared_secret"`
	APIURL       string `toml:"api_url"`
}

// Configured reports whether both the API key and shared secret are present.
func (l LastFMConfig) Configured() bool {
	return l.APIKey != "" && l.SharedSecret != ""
}

// SpotifyConfig holds the public Spotify client id handed to the frontend.
type SpotifyConfig struct {
	ClientID string `toml:"client_id"`
}

// UpstreamConfig holds upstream connection settings.
type UpstreamConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"`
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file (if any) and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/music-bridge/config.toml then configs/config.toml. Finding none is not
// an error: credentials may be supplied entirely through the environment.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.DeezerAppID != "" {
		c.Deezer.AppID = cli.DeezerAppID
	}
	if cli.DeezerAppSecret != "" {
		c.Deezer.AppSecret = cli.DeezerAppSecret
	}
	if cli.LastFMAPIKey != "" {
		c.LastFM.APIKey = cli.LastFMAPIKey
	}
	if cli.LastFMSharedSecret != "" {
		c.LastFM.SharedSecret = cli.LastFMSharedSecret
	}
	if cli.SpotifyClientID != "" {
		c.Spotify.ClientID = cli.SpotifyClientID
	}
}

func (c *Config) validate() error {
	if c.Deezer.AppSecret == placeholderSecret {
		return fmt.Errorf("deezer.app_secret contains placeholder value; set a real secret or leave it empty")
	}
	if c.LastFM.SharedSecret == placeholderSecret {
		return fmt.Errorf("lastfm.shared_secret contains placeholder value; set a real secret or leave it empty")
	}

	// Upstream URLs: must be HTTPS since credentials travel in query strings and cookies.
	urls := []struct {
		key string
		val string
	}{
		{"deezer.auth_url", c.Deezer.AuthURL},
		{"deezer.token_url", c.Deezer.TokenURL},
		{"deezer.api_url", c.Deezer.APIURL},
		{"deezer.gateway_url", c.Deezer.GatewayURL},
		{"deezer.site_url", c.Deezer.SiteURL},
		{"lastfm.api_url", c.LastFM.APIURL},
	}
	for _, u := range urls {
		if err := validateHTTPS(u.key, u.val); err != nil {
			return err
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api", "/healthz", "/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

func validateHTTPS(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute HTTPS URL; got %q", key, raw)
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 6 * 1024 * 1024 // 6 MB
	}
	if c.Deezer.AuthURL == "" {
		c.Deezer.AuthURL = "https://connect.deezer.com/oauth/auth.php"
	}
	if c.Deezer.TokenURL == "" {
		c.Deezer.TokenURL = "https://connect.deezer.com/oauth/access_token.php"
	}
	if c.Deezer.APIURL == "" {
		c.Deezer.APIURL = "https://api.deezer.com"
	}
	if c.Deezer.GatewayURL == "" {
		c.Deezer.GatewayURL = "https://www.deezer.com/ajax/gw-light.php"
	}
	if c.Deezer.SiteURL == "" {
		c.Deezer.SiteURL = "https://www.deezer.com"
	}
	if c.LastFM.APIURL == "" {
		c.LastFM.APIURL = "https://ws.audioscrobbler.com/2.0/"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
