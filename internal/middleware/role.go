package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/casecraft/internal/auth"
)

// RequireRole returns a middleware that enforces the authorization
// policy for a role-gated route. It assumes JWTAuth ran earlier and
// stored the identity in context; the actual decision is delegated to
// auth.Authorize so every role check in the application goes through
// one policy function.
func RequireRole(role string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := CurrentIdentity(c)
            if !ok || !auth.Authorize(id, role) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
