package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/casecraft/internal/auth"
	"github.com/iliyamo/casecraft/internal/middleware"
	"github.com/iliyamo/casecraft/internal/model"
	"github.com/iliyamo/casecraft/internal/repository"
)

// OrderHandler serves order reads and the admin shipping update.
type OrderHandler struct {
	Orders *repository.OrderRepo
}

func NewOrderHandler(orders *repository.OrderRepo) *OrderHandler { return &OrderHandler{Orders: orders} }

type orderResp struct {
	ID             uint64         `json:"id"`
	UserID         uint64         `json:"user_id"`
	PhoneCaseID    *uint64        `json:"phone_case_id,omitempty"`
	PaymentStatus  string         `json:"payment_status"`
	ShippingStatus string         `json:"shipping_status"`
	CreatedAt      time.Time      `json:"created_at"`
	Address        *model.Address `json:"address,omitempty"`
}

// Get returns one order with its address. Customers may only read their
// own orders; admins may read any.
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != id.UserID && !auth.Authorize(id, model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	addr, err := h.Orders.GetAddress(ctx, o.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, orderResp{
		ID:             o.ID,
		UserID:         o.UserID,
		PhoneCaseID:    o.PhoneCaseID,
		PaymentStatus:  o.PaymentStatus,
		ShippingStatus: o.ShippingStatus,
		CreatedAt:      o.CreatedAt,
		Address:        addr,
	})
}

type paidOrdersResp struct {
	Orders     []repository.PaidOrder `json:"orders"`
	TotalCents uint64                 `json:"total_cents"`
}

// ListPaid returns the most recent Paid orders plus the aggregate
// revenue in minor units. Admin only (enforced by the route).
func (h *OrderHandler) ListPaid(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, total, err := h.Orders.ListPaid(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if orders == nil {
		orders = []repository.PaidOrder{}
	}
	return c.JSON(http.StatusOK, paidOrdersResp{Orders: orders, TotalCents: total})
}

type shippingReq struct {
	Status string `json:"status"`
}

// UpdateShipping advances an order's shipping status. Admin only. The
// repository enforces the two invariants: the order must be Paid and
// the status may only move forward.
func (h *OrderHandler) UpdateShipping(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req shippingReq
	if err := c.Bind(&req); err != nil || !model.IsShippingStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shipping status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.UpdateShippingStatus(ctx, orderID, req.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "shipping status change not allowed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": orderID, "shipping_status": req.Status})
}
