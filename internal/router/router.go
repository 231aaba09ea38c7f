package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/casecraft/internal/config"
	"github.com/iliyamo/casecraft/internal/handler"
	"github.com/iliyamo/casecraft/internal/middleware"
	"github.com/iliyamo/casecraft/internal/model"
)

// Register wires every route of the API onto the Echo instance. The
// surface splits into four bands:
//   - open plumbing: health check and the provider webhook (which
//     authenticates by signature, not by bearer token)
//   - rate-limited auth endpoints: signup, login, token rotation, logout
//   - authenticated customer endpoints: checkout and own-order reads
//   - admin endpoints: user listing, paid-order listing, shipping updates
func Register(e *echo.Echo, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client,
	a *handler.AuthHandler, u *handler.UserHandler, o *handler.OrderHandler,
	ch *handler.CheckoutHandler, wh *handler.WebhookHandler) {

	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// The webhook route must see the raw, unparsed body; no body-reading
	// middleware may run before it.
	e.POST("/webhook", wh.Handle)

	// Unauthenticated auth endpoints get the Redis token bucket. These
	// routes are the credential-stuffing targets; everything else is
	// behind a token anyway.
	rl := middleware.NewTokenBucket(rlCfg, rdb)
	e.POST("/signup", a.Signup, rl)
	e.POST("/login", a.Login, rl)
	e.POST("/token", a.Refresh, rl)
	e.POST("/logout", a.Logout, rl)

	// Routes requiring a valid access token.
	authed := e.Group("", middleware.JWTAuth(cfg.AccessTokenKey))
	authed.POST("/create-checkout-session", ch.Create)
	authed.GET("/orders/:id", o.Get)

	// Admin-only routes: the same gate plus the role policy.
	admin := e.Group("", middleware.JWTAuth(cfg.AccessTokenKey), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", u.List)
	admin.GET("/orders", o.ListPaid)
	admin.PUT("/orders/:id", o.UpdateShipping)
}
