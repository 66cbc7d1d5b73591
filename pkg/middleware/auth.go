package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BearerAuth guards protected routes with a shared API key. An empty
// configured key rejects everything, so a deployment cannot accidentally
// expose /list and /delete by leaving API_KEY unset.
func BearerAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if apiKey == "" || !ok ||
				subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized: Invalid API Key",
				})
			}
			return next(c)
		}
	}
}

// SecurityHeaders adds the uniform response headers every endpoint
// carries.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			return next(c)
		}
	}
}
