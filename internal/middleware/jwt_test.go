package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/casecraft/internal/auth"
	"github.com/iliyamo/casecraft/internal/model"
)

const testSecret = "access-test-secret"

func runGated(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, auth.Identity, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got auth.Identity
	var seen bool
	h := mw(func(c echo.Context) error {
		got, seen = CurrentIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, got, seen
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec, _, seen := runGated(t, JWTAuth(testSecret), "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, seen)
	require.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestJWTAuthExpiredToken(t *testing.T) {
	tok, err := auth.NewAccessToken(testSecret, auth.Identity{UserID: 7, Username: "alice", Role: model.RoleUser}, -1)
	require.NoError(t, err)

	rec, _, seen := runGated(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, seen)
	require.Contains(t, rec.Body.String(), "token expired")
}

func TestJWTAuthForeignToken(t *testing.T) {
	tok, err := auth.NewAccessToken("some-other-secret", auth.Identity{UserID: 7, Username: "alice", Role: model.RoleUser}, 5)
	require.NoError(t, err)

	rec, _, seen := runGated(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, seen)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _, seen := runGated(t, JWTAuth(testSecret), "Bearer not.a.jwt")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, seen)
}

func TestJWTAuthValidToken(t *testing.T) {
	want := auth.Identity{UserID: 7, Username: "alice", Role: model.RoleAdmin}
	tok, err := auth.NewAccessToken(testSecret, want, 5)
	require.NoError(t, err)

	rec, got, seen := runGated(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	require.Equal(t, want, got)
}

func TestRequireRole(t *testing.T) {
	chain := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return JWTAuth(testSecret)(RequireRole(role)(next))
		}
	}

	userTok, err := auth.NewAccessToken(testSecret, auth.Identity{UserID: 7, Username: "alice", Role: model.RoleUser}, 5)
	require.NoError(t, err)
	adminTok, err := auth.NewAccessToken(testSecret, auth.Identity{UserID: 1, Username: "root", Role: model.RoleAdmin}, 5)
	require.NoError(t, err)

	rec, _, _ := runGated(t, chain(model.RoleAdmin), "Bearer "+userTok.Token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _, _ = runGated(t, chain(model.RoleAdmin), "Bearer "+adminTok.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	// Admins pass user-gated routes too.
	rec, _, _ = runGated(t, chain(model.RoleUser), "Bearer "+adminTok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
}
