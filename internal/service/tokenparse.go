package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// ParseTokenResponse normalizes a token endpoint reply into a key/value map.
// Deezer answers with JSON when output=json is honoured and with
// access_token=...&expires=... otherwise; both yield the same shape.
func ParseTokenResponse(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, fmt.Errorf("parse JSON token response: %w", err)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse JSON token response: expected object, got %T", v)
		}
		return obj, nil
	}

	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("parse URL-encoded token response: %w", err)
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}

// upstreamErrorMessage extracts a readable message from an "error" field,
// which Deezer sends as an object with a message, or as a bare string.
func upstreamErrorMessage(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// stringField returns m[key] rendered as a string, or "" when absent.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
