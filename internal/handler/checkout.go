package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/casecraft/internal/config"
	"github.com/iliyamo/casecraft/internal/middleware"
	"github.com/iliyamo/casecraft/internal/payment"
	"github.com/iliyamo/casecraft/internal/repository"
)

// CheckoutHandler initiates hosted-checkout sessions with the payment
// provider. It creates the Pending order first, then embeds the order
// and user ids as session metadata; the provider echoes that metadata
// back in the completion webhook, which is how the two flows meet at
// the order ledger.
type CheckoutHandler struct {
	Cfg      config.Config
	Orders   *repository.OrderRepo
	Cases    *repository.PhoneCaseRepo
	Provider payment.Provider
}

func NewCheckoutHandler(cfg config.Config, orders *repository.OrderRepo, cases *repository.PhoneCaseRepo, provider payment.Provider) *CheckoutHandler {
	return &CheckoutHandler{Cfg: cfg, Orders: orders, Cases: cases, Provider: provider}
}

type checkoutReq struct {
	PhoneCaseID uint64 `json:"phoneCaseId"`
}

type checkoutResp struct {
	OrderID     uint64 `json:"orderId"`
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Create builds the outbound checkout request. The provider call is
// bounded by the configured timeout; any provider failure surfaces as
// 502 and the Pending order stays behind, to be picked up if the
// customer retries checkout or abandoned otherwise.
func (h *CheckoutHandler) Create(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	var req checkoutReq
	if err := c.Bind(&req); err != nil || req.PhoneCaseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phoneCaseId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pc, err := h.Cases.GetByID(ctx, req.PhoneCaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "phone case not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	caseID := pc.ID
	order, err := h.Orders.Create(ctx, id.UserID, &caseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	provCtx, provCancel := context.WithTimeout(c.Request().Context(), h.Cfg.ProviderTimeout)
	defer provCancel()

	sess, err := h.Provider.CreateCheckoutSession(provCtx, payment.CheckoutParams{
		Description: fmt.Sprintf("Custom %s %s case for %s", pc.Finish, pc.Material, pc.CaseModel),
		AmountCents: pc.PriceCents,
		Currency:    "usd",
		OrderID:     order.ID,
		UserID:      id.UserID,
		SuccessURL:  h.Cfg.CheckoutSuccessURL,
		CancelURL:   h.Cfg.CheckoutCancelURL,
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}

	return c.JSON(http.StatusOK, checkoutResp{OrderID: order.ID, SessionID: sess.ID, CheckoutURL: sess.URL})
}
