package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/casecraft/internal/auth"
)

// identityKey is the context key under which JWTAuth stores the decoded
// auth.Identity for downstream middleware and handlers.
const identityKey = "identity"

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the decoded identity into the request context. The
// three rejection cases carry distinct semantics:
//   - no bearer token at all        -> 401, client must log in
//   - well-formed but expired token -> 401 with "token expired", client
//     should rotate its refresh token rather than re-login
//   - invalid signature/structure   -> 403, token is not ours
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            id, err := auth.VerifyAccess(secret, raw)
            if err != nil {
                if errors.Is(err, auth.ErrTokenExpired) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
                }
                return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
            }

            c.Set(identityKey, id)
            return next(c)
        }
    }
}

// CurrentIdentity extracts the identity stored by JWTAuth. The boolean
// is false when the middleware did not run or rejected the request.
func CurrentIdentity(c echo.Context) (auth.Identity, bool) {
    id, ok := c.Get(identityKey).(auth.Identity)
    return id, ok
}
