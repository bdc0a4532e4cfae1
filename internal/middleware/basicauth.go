package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-listings/internal/utils"
)

// BasicAuth returns an Echo middleware that guards the admin surface with a
// static username/password pair. There is no session or token issuance: the
// credentials travel on every request and a mismatch answers 401 with a
// WWW-Authenticate challenge so browsers re-prompt. When passHash is
// non-empty it holds a bcrypt hash of the admin password and replaces the
// plain constant-time comparison.
func BasicAuth(user, pass, passHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, p, ok := c.Request().BasicAuth()
			if !ok || !utils.SecureCompare(u, user) || !utils.CheckAdminPassword(p, pass, passHash) {
				c.Response().Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
