package handler

import (
	"io"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"music-bridge-go/internal/model"
	"music-bridge-go/internal/service"
)

// GatewayHandler relays browser calls to the Deezer gateway.
type GatewayHandler struct {
	service *service.GatewayService
	logger  *slog.Logger
}

// NewGatewayHandler creates a GatewayHandler.
func NewGatewayHandler(svc *service.GatewayService, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		service: svc,
		logger:  logger.With("component", "gateway_handler"),
	}
}

// Handle buffers the request body, forwards it and streams the gateway's
// reply back with its status code.
func (h *GatewayHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// Oversized bodies surface here as *echo.HTTPError from BodyLimit.
		return err
	}

	gr := &model.GatewayRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		RawQuery: req.URL.RawQuery,
		Query:    req.URL.Query(),
		Header:   req.Header,
		Body:     body,
		Base64:   strings.EqualFold(req.Header.Get(service.BodyEncodingHeader), "base64"),
	}

	resp, err := h.service.Forward(gr)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// The status is already sent, so a failed copy leaves the client with a
	// truncated body. Log it and move on.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"status", resp.StatusCode,
		)
	}

	return nil
}
