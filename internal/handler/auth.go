package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/casecraft/internal/auth"
	"github.com/iliyamo/casecraft/internal/config"
	"github.com/iliyamo/casecraft/internal/model"
	"github.com/iliyamo/casecraft/internal/repository"
)

// AuthHandler bundles dependencies for the auth endpoints. All session
// logic lives in auth.Service; the handler only binds, validates and
// maps errors to status codes.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *auth.Service
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, sessions *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
type sessionResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"accessToken"`
	Refresh tokenPart `json:"refreshToken"`
}

func sessionJSON(s auth.Session) sessionResp {
	return sessionResp{
		User:    userPart{ID: s.Identity.UserID, Username: s.Identity.Username, Role: s.Identity.Role},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Signup creates a user account with the default role.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, userPart{ID: uid, Username: req.Username, Role: model.RoleUser})
}

// Login verifies credentials and issues a fresh access/refresh pair.
// Issuing goes through IssueSession, which invalidates any previously
// valid refresh token for the user, so a successful login always leaves
// exactly one valid refresh token behind.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	sess, err := h.Sessions.IssueSession(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

// Refresh rotates a refresh token: the presented token is invalidated
// and a new pair is issued in one atomic sequence. A replayed or
// unknown token gets the same "not found" rejection so callers cannot
// distinguish replay from forgery.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.Rotate(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshNotFound):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token not found"})
		case errors.Is(err, auth.ErrRefreshExpired):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token expired"})
		case errors.Is(err, auth.ErrRefreshSignature):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token invalid"})
		}
		log.Printf("auth: rotate failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

// Logout revokes the refresh token in the body, ending that session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		if errors.Is(err, auth.ErrRefreshNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		log.Printf("auth: revoke failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
