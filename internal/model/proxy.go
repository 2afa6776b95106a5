// Package model defines shared types for the bridge.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// GatewayRequest represents a client request to be relayed to the Deezer gateway.
type GatewayRequest struct {
	Ctx      context.Context
	Method   string
	RawQuery string
	Query    url.Values
	Header   http.Header
	Body     []byte
	Base64   bool // Body is base64 text that must be decoded before sending
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// UpstreamResponse is a fully buffered upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ExchangeResult is returned to the browser after a successful Deezer code exchange.
// It never carries the application secret.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	Expires     *int64 `json:"expires"`
	UserName    string `json:"user_name"`
}
