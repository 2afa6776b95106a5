package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"music-bridge-go/internal/client"
	"music-bridge-go/internal/config"
	"music-bridge-go/internal/model"
)

// ARLHeader carries the user's Deezer session credential from the browser.
const ARLHeader = "X-Deezer-ARL"

// BodyEncodingHeader marks a request body that travels base64-encoded.
const BodyEncodingHeader = "X-Body-Encoding"

const (
	defaultContentType = "text/plain;charset=UTF-8"
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// forwardableResponseHeaders are the only response headers forwarded to the client.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type": true,
}

// GatewayService relays browser requests to Deezer's private gateway.
type GatewayService struct {
	client     *client.UpstreamClient
	logger     *slog.Logger
	gatewayURL *url.URL
	origin     string
	referer    string
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*GatewayService, error) {
	u, err := url.Parse(cfg.Deezer.GatewayURL)
	if err != nil {
		return nil, fmt.Errorf("parse deezer gateway_url: %w", err)
	}
	site := strings.TrimRight(cfg.Deezer.SiteURL, "/")
	return &GatewayService{
		client:     c,
		logger:     logger.With("component", "gateway_service"),
		gatewayURL: u,
		origin:     site,
		referer:    site + "/",
	}, nil
}

// Forward sends a GatewayRequest to the Deezer gateway as a POST and returns
// the response. The caller is responsible for closing the response body.
//
// The body is fully decoded before the request is built so that an explicit
// Content-Length is always sent; gw-light.php rejects chunked uploads.
func (s *GatewayService) Forward(gr *model.GatewayRequest) (*model.ProxyResponse, error) {
	body, err := decodeBody(gr.Body, gr.Base64)
	if err != nil {
		return nil, err
	}

	upstreamURL := s.buildUpstreamURL(gr.RawQuery, gr.Query)
	header := s.buildRequestHeaders(gr.Header)

	req, err := http.NewRequestWithContext(gr.Ctx, http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header = header
	req.ContentLength = int64(len(body))
	if len(body) == 0 {
		req.Body = http.NoBody
	}

	s.logger.Debug("forwarding request",
		"method", gr.Method,
		"content_length", req.ContentLength,
		"has_arl", header.Get("Cookie") != "",
	)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer gateway: %w: %w", ErrUpstreamUnreachable, err)
	}

	resp.Header = s.filterResponseHeaders(resp.Header)
	return resp, nil
}

func decodeBody(body []byte, isBase64 bool) ([]byte, error) {
	if !isBase64 || len(body) == 0 {
		return body, nil
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(decoded, bytes.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64: %w", ErrInvalidBody, err)
	}
	return decoded[:n], nil
}

// buildUpstreamURL keeps the client's query byte-for-byte when it is
// available and only re-encodes parsed parameters as a fallback.
func (s *GatewayService) buildUpstreamURL(rawQuery string, query url.Values) string {
	u := *s.gatewayURL
	switch {
	case rawQuery != "":
		u.RawQuery = rawQuery
	case len(query) > 0:
		u.RawQuery = query.Encode()
	default:
		u.RawQuery = ""
	}
	return u.String()
}

// buildRequestHeaders mimics an ordinary browser call from the Deezer site.
// Nothing else from the inbound request is forwarded.
func (s *GatewayService) buildRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header)

	contentType := src.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	dst.Set("Content-Type", contentType)
	dst.Set("User-Agent", browserUserAgent)
	dst.Set("Accept", "*/*")
	dst.Set("Accept-Language", "en-US,en;q=0.9")
	dst.Set("Origin", s.origin)
	dst.Set("Referer", s.referer)

	if arl := src.Get(ARLHeader); arl != "" {
		dst.Set("Cookie", "arl="+arl)
	}
	return dst
}

func (s *GatewayService) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if forwardableResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[key] = vals
		}
	}
	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", "application/json")
	}
	return dst
}
