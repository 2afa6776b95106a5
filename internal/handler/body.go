package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/service"
)

// stringField reads a JSON object body and returns the named string field.
// An empty body is treated as an empty object.
func stringField(c echo.Context, name string) (string, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", service.ErrInvalidBody, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: invalid JSON body", service.ErrInvalidBody)
	}

	obj, _ := doc.(map[string]any)
	v, ok := obj[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", service.ErrMissingField, name)
	}
	return v, nil
}
