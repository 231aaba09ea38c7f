package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/casecraft/internal/payment"
)

// signatureHeader is the provider-supplied header carrying the MAC over
// the raw request body.
const signatureHeader = "Stripe-Signature"

// maxWebhookBody caps how much of a delivery is read before signature
// verification. Real provider events are a few KB.
const maxWebhookBody = 64 << 10

// WebhookHandler ingests asynchronous payment events. The body must be
// read raw before any parsing: the signature covers the exact bytes the
// provider sent.
type WebhookHandler struct {
	Secret    string
	Processor *payment.Processor
}

func NewWebhookHandler(secret string, p *payment.Processor) *WebhookHandler {
	return &WebhookHandler{Secret: secret, Processor: p}
}

// Handle verifies, parses and processes one delivery. Every rejection
// path is chosen for its retry semantics: 400s tell the provider the
// delivery itself is unacceptable, while a missing order returns 500 so
// the provider redelivers instead of the fault being swallowed.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	sig := c.Request().Header.Get(signatureHeader)
	if err := payment.VerifySignature(h.Secret, sig, body, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	if err := h.Processor.Process(c.Request().Context(), ev); err != nil {
		switch {
		case errors.Is(err, payment.ErrUnsupportedEvent):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported event type"})
		case errors.Is(err, payment.ErrMetadataMissing):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing orderId/userId metadata"})
		case errors.Is(err, payment.ErrOrderMissing):
			log.Printf("webhook: integrity fault: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order not found for event"})
		}
		log.Printf("webhook: processing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
