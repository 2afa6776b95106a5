package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/client"
	"music-bridge-go/internal/config"
	"music-bridge-go/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gatewayCall is what the fake gateway saw on its last request.
type gatewayCall struct {
	method        string
	rawQuery      string
	contentLength int64
	chunked       bool
	cookie        string
	body          string
}

// fakeUpstream serves the Deezer token, profile and gateway endpoints and the
// Last.fm API from a single test server.
type fakeUpstream struct {
	tokenBody     string
	profileBody   string
	lastfmStatus  int
	lastfmBody    string
	gatewayStatus int
	gatewayBody   string

	calls atomic.Int32

	mu      sync.Mutex
	gateway gatewayCall
	lastfm  map[string]string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	switch r.URL.Path {
	case "/oauth/access_token.php":
		_, _ = io.WriteString(w, f.tokenBody)
	case "/user/me":
		_, _ = io.WriteString(w, f.profileBody)
	case "/2.0/":
		q := r.URL.Query()
		f.mu.Lock()
		f.lastfm = map[string]string{
			"method":  q.Get("method"),
			"api_key": q.Get("api_key"),
			"token":   q.Get("token"),
			"api_sig": q.Get("api_sig"),
			"format":  q.Get("format"),
		}
		f.mu.Unlock()
		status := f.lastfmStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.lastfmBody)
	case "/ajax/gw-light.php":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.gateway = gatewayCall{
			method:        r.Method,
			rawQuery:      r.URL.RawQuery,
			contentLength: r.ContentLength,
			chunked:       len(r.TransferEncoding) > 0,
			cookie:        r.Header.Get("Cookie"),
			body:          string(body),
		}
		f.mu.Unlock()
		status := f.gatewayStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Set-Cookie", "sid=upstream-session")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.gatewayBody)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeUpstream) lastGateway() gatewayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gateway
}

func (f *fakeUpstream) lastLastFM() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastfm
}

// newTestConfig points every upstream at baseURL with all credentials set.
func newTestConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BodyMaxBytes: 1 << 20},
		Deezer: config.DeezerConfig{
			AppID:      "123456",
			AppSecret:  "deezer-secret",
			TokenURL:   baseURL + "/oauth/access_token.php",
			APIURL:     baseURL,
			GatewayURL: baseURL + "/ajax/gw-light.php",
			SiteURL:    "https://www.deezer.com",
		},
		LastFM: config.LastFMConfig{
			APIKey:       "lastfm-key",
			SharedSecret: "lastfm-secret",
			APIURL:       baseURL + "/2.0/",
		},
		Spotify:  config.SpotifyConfig{ClientID: "spotify-client"},
		Upstream: config.UpstreamConfig{TimeoutSeconds: 5, IdleConnections: 10},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testHandlers struct {
	deezer  *DeezerAuthHandler
	lastfm  *LastFMAuthHandler
	gateway *GatewayHandler
	public  *ConfigHandler
	health  *HealthHandler
}

func newTestHandlers(t *testing.T, cfg *config.Config) testHandlers {
	t.Helper()

	logger := testLogger()
	uc := client.NewUpstreamClient(cfg, logger, nil)
	gw, err := service.NewGatewayService(uc, cfg, logger)
	if err != nil {
		t.Fatalf("NewGatewayService: %v", err)
	}

	return testHandlers{
		deezer:  NewDeezerAuthHandler(service.NewDeezerAuthService(uc, cfg, logger), logger),
		lastfm:  NewLastFMAuthHandler(service.NewLastFMAuthService(uc, cfg, logger), logger),
		gateway: NewGatewayHandler(gw, logger),
		public:  NewConfigHandler(cfg),
		health:  NewHealthHandler(cfg, "test"),
	}
}

// serve runs h directly against a recorded request.
func serve(t *testing.T, h echo.HandlerFunc, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body %q: %v", rec.Body.String(), err)
	}
	if body.Error == "" {
		t.Fatalf("error body has empty message: %q", rec.Body.String())
	}
	return body.Error
}
