package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/casecraft/internal/model"
	"github.com/iliyamo/casecraft/internal/payment"
	"github.com/iliyamo/casecraft/internal/repository"
)

const endpointSecret = "whsec_handler_test"

// memOrders mirrors the transactional settle of the MySQL repo behind
// one mutex.
type memOrders struct {
	mu        sync.Mutex
	orders    map[uint64]*model.Order
	addresses []model.Address
	events    map[string]bool
}

func (m *memOrders) GetByID(_ context.Context, id uint64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return *o, nil
}

func (m *memOrders) SettlePayment(_ context.Context, orderID uint64, eventID string, addr model.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events[eventID] {
		return false, nil
	}
	o, ok := m.orders[orderID]
	if !ok || o.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	m.events[eventID] = true
	m.addresses = append(m.addresses, addr)
	id := uint64(len(m.addresses))
	o.PaymentStatus = model.PaymentPaid
	o.AddressID = &id
	return true, nil
}

type webhookFixture struct {
	handler *WebhookHandler
	orders  *memOrders
}

func newWebhookFixture() *webhookFixture {
	orders := &memOrders{
		orders: map[uint64]*model.Order{
			42: {ID: 42, UserID: 7, PaymentStatus: model.PaymentPending, ShippingStatus: model.ShippingAwaiting},
		},
		events: map[string]bool{},
	}
	return &webhookFixture{
		handler: NewWebhookHandler(endpointSecret, payment.NewProcessor(orders, nil)),
		orders:  orders,
	}
}

func (f *webhookFixture) deliver(t *testing.T, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, f.handler.Handle(e.NewContext(req, rec)))
	return rec
}

func checkoutCompletedBody(eventID, orderID, userID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_9",
			"metadata": {"orderId": %q, "userId": %q},
			"customer_details": {"name": "Alice Doe", "email": "alice@example.com", "phone": "555-0100"},
			"shipping_details": {
				"name": "Alice Doe",
				"address": {"line1": "1 Main St", "city": "Springfield", "state": "IL", "postal_code": "62704", "country": "US"}
			}
		}}
	}`, eventID, orderID, userID))
}

func TestWebhookHappyPath(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_1", "42", "7")

	rec := f.deliver(t, body, payment.SignPayload(endpointSecret, time.Now().UTC(), body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "received")

	got, err := f.orders.GetByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, model.PaymentPaid, got.PaymentStatus)
	require.Len(t, f.orders.addresses, 1)
}

func TestWebhookRedelivery(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_1", "42", "7")
	sig := payment.SignPayload(endpointSecret, time.Now().UTC(), body)

	require.Equal(t, http.StatusOK, f.deliver(t, body, sig).Code)
	require.Equal(t, http.StatusOK, f.deliver(t, body, sig).Code)
	require.Len(t, f.orders.addresses, 1)
}

func TestWebhookBadSignature(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_1", "42", "7")

	rec := f.deliver(t, body, payment.SignPayload("wrong-secret", time.Now().UTC(), body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got, _ := f.orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPending, got.PaymentStatus)
}

func TestWebhookMissingSignatureHeader(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_1", "42", "7")
	require.Equal(t, http.StatusBadRequest, f.deliver(t, body, "").Code)
}

func TestWebhookTamperedBody(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_1", "42", "7")
	sig := payment.SignPayload(endpointSecret, time.Now().UTC(), body)

	tampered := checkoutCompletedBody("evt_1", "43", "7")
	require.Equal(t, http.StatusBadRequest, f.deliver(t, tampered, sig).Code)
}

func TestWebhookOversizedBody(t *testing.T) {
	f := newWebhookFixture()
	// Valid event padded past the read cap; the delivery is rejected
	// before any state is touched, signature or not.
	body := append(checkoutCompletedBody("evt_1", "42", "7"), bytes.Repeat([]byte(" "), 128<<10)...)

	rec := f.deliver(t, body, payment.SignPayload(endpointSecret, time.Now().UTC(), body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got, _ := f.orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPending, got.PaymentStatus)
	require.Empty(t, f.orders.addresses)
}

func TestWebhookUnsupportedEventType(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"id": "evt_2", "type": "invoice.created", "data": {"object": {}}}`)

	rec := f.deliver(t, body, payment.SignPayload(endpointSecret, time.Now().UTC(), body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unsupported")
}

func TestWebhookMissingMetadata(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{
		"id": "evt_3",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_9", "metadata": {}}}
	}`)

	rec := f.deliver(t, body, payment.SignPayload(endpointSecret, time.Now().UTC(), body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "metadata")
}

func TestWebhookUnknownOrder(t *testing.T) {
	f := newWebhookFixture()
	body := checkoutCompletedBody("evt_4", "999", "7")

	rec := f.deliver(t, body, payment.SignPayload(endpointSecret, time.Now().UTC(), body))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
