// Package service implements the credential exchanges and the gateway relay.
package service

import "errors"

var (
	// ErrInvalidBody is returned when the client body cannot be decoded.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrMissingField is returned when a required body field is absent or empty.
	ErrMissingField = errors.New("missing required field")
	// ErrNotConfigured is returned when server-side credentials are absent.
	ErrNotConfigured = errors.New("credentials not configured on the server")
	// ErrUpstreamUnreachable is returned on connection failures and timeouts.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrUpstreamRejected is returned when the upstream reports a business error.
	ErrUpstreamRejected = errors.New("upstream rejected the request")
	// ErrUpstreamProtocol is returned when a success-shaped reply lacks an expected field.
	ErrUpstreamProtocol = errors.New("unexpected upstream response")
)
