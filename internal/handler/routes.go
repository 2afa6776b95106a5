package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"music-bridge-go/internal/config"
	"music-bridge-go/internal/metrics"
	"music-bridge-go/internal/middleware"
	"music-bridge-go/internal/service"
)

var (
	exchangeCORS = middleware.CORSPolicy{
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}
	gatewayCORS = middleware.CORSPolicy{
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, service.ARLHeader, service.BodyEncodingHeader},
	}
	configCORS = middleware.CORSPolicy{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}
)

// RegisterRoutes wires all route handlers onto the Echo instance. Every /api
// route is registered for all methods so that CORS headers and the JSON 405
// body apply uniformly.
func RegisterRoutes(
	e *echo.Echo,
	deezer *DeezerAuthHandler,
	lastfm *LastFMAuthHandler,
	gateway *GatewayHandler,
	public *ConfigHandler,
	health *HealthHandler,
) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	e.Any("/api/deezer-auth", deezer.Handle,
		middleware.CORS(exchangeCORS),
		middleware.AllowMethods(http.MethodPost),
	)
	e.Any("/api/lastfm-auth", lastfm.Handle,
		middleware.CORS(exchangeCORS),
		middleware.AllowMethods(http.MethodPost),
	)
	// Any non-OPTIONS method is forwarded; the gateway only ever sees POST.
	e.Any("/api/deezer-proxy", gateway.Handle,
		middleware.CORS(gatewayCORS),
	)
	e.Any("/api/config", public.Handle,
		middleware.CORS(configCORS),
		middleware.AllowMethods(http.MethodGet, http.MethodHead),
	)
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
