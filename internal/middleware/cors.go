package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSPolicy describes the cross-origin headers attached to one route.
type CORSPolicy struct {
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int // seconds; 0 omits Access-Control-Max-Age
}

// CORS returns an Echo middleware that applies policy to every response on the
// route, errors included, with a wildcard origin. OPTIONS requests are answered
// with 204 and never reach the handler.
//
// The headers are sent whether or not the request carries an Origin header,
// so a preflight from any client sees the same answer.
func CORS(policy CORSPolicy) echo.MiddlewareFunc {
	methods := strings.Join(policy.AllowMethods, ", ")
	headers := strings.Join(policy.AllowHeaders, ", ")
	maxAge := ""
	if policy.MaxAge > 0 {
		maxAge = strconv.Itoa(policy.MaxAge)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			if maxAge != "" {
				h.Set(echo.HeaderAccessControlMaxAge, maxAge)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// AllowMethods returns an Echo middleware that rejects any method not listed
// with a JSON 405 body.
func AllowMethods(methods ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allowHeader := strings.Join(methods, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[c.Request().Method]; !ok {
				c.Response().Header().Set(echo.HeaderAllow, allowHeader)
				return c.JSON(http.StatusMethodNotAllowed, map[string]string{
					"error": "method not allowed",
				})
			}
			return next(c)
		}
	}
}
