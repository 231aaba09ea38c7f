package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/casecraft/internal/model"
	"github.com/iliyamo/casecraft/internal/queue"
	"github.com/iliyamo/casecraft/internal/repository"
)

// fakeOrders reproduces the transactional SettlePayment of the MySQL
// repo: the event record, address and status flip land together or not
// at all, guarded by one mutex.
type fakeOrders struct {
	mu        sync.Mutex
	orders    map[uint64]*model.Order
	addresses []model.Address
	events    map[string]bool
	settleErr error // next SettlePayment fails with this, then clears
}

func newFakeOrders(orders ...model.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uint64]*model.Order{}, events: map[string]bool{}}
	for _, o := range orders {
		cp := o
		f.orders[o.ID] = &cp
	}
	return f
}

func (f *fakeOrders) GetByID(_ context.Context, id uint64) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return *o, nil
}

func (f *fakeOrders) SettlePayment(_ context.Context, orderID uint64, eventID string, addr model.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		err := f.settleErr
		f.settleErr = nil
		return false, err
	}
	if f.events[eventID] {
		return false, nil
	}
	o, ok := f.orders[orderID]
	if !ok || o.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	f.events[eventID] = true
	f.addresses = append(f.addresses, addr)
	id := uint64(len(f.addresses))
	o.PaymentStatus = model.PaymentPaid
	o.AddressID = &id
	return true, nil
}

func completedEventJSON(eventID string, metadata map[string]string) []byte {
	md := ""
	first := true
	for k, v := range metadata {
		if !first {
			md += ","
		}
		md += fmt.Sprintf("%q:%q", k, v)
		first = false
	}
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"metadata": {%s},
			"customer_details": {"name": "Alice Doe", "email": "alice@example.com", "phone": "555-0100"},
			"shipping_details": {
				"name": "Alice Doe",
				"address": {"line1": "1 Main St", "city": "Springfield", "state": "IL", "postal_code": "62704", "country": "US"}
			}
		}}
	}`, eventID, md))
}

func parse(t *testing.T, body []byte) Event {
	t.Helper()
	e, err := ParseEvent(body)
	require.NoError(t, err)
	return e
}

func pendingOrder(id, userID uint64) model.Order {
	return model.Order{ID: id, UserID: userID,
		PaymentStatus: model.PaymentPending, ShippingStatus: model.ShippingAwaiting}
}

func TestProcessTransitionsOrderOnce(t *testing.T) {
	orders := newFakeOrders(pendingOrder(42, 7))
	var published []queue.OrderPaidEvent
	p := NewProcessor(orders, func(_ context.Context, ev queue.OrderPaidEvent) error {
		published = append(published, ev)
		return nil
	})

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"orderId": "42", "userId": "7"}))
	require.NoError(t, p.Process(context.Background(), ev))

	got, err := orders.GetByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, model.PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.AddressID)

	require.Len(t, orders.addresses, 1)
	addr := orders.addresses[0]
	require.Equal(t, "1 Main St", addr.Street)
	require.Equal(t, "Springfield, US", addr.City)
	require.Equal(t, "62704", addr.Zipcode)
	require.Equal(t, "alice@example.com", addr.Email)

	require.Len(t, published, 1)
	require.Equal(t, uint64(42), published[0].OrderID)
}

func TestProcessRedeliveryIsIdempotent(t *testing.T) {
	orders := newFakeOrders(pendingOrder(42, 7))
	notifies := 0
	p := NewProcessor(orders, func(context.Context, queue.OrderPaidEvent) error {
		notifies++
		return nil
	})

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"orderId": "42", "userId": "7"}))
	require.NoError(t, p.Process(context.Background(), ev))
	require.NoError(t, p.Process(context.Background(), ev))
	require.NoError(t, p.Process(context.Background(), ev))

	got, _ := orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPaid, got.PaymentStatus)
	require.Len(t, orders.addresses, 1)
	require.Equal(t, 1, notifies)
}

func TestProcessTransientFailureThenRetry(t *testing.T) {
	orders := newFakeOrders(pendingOrder(42, 7))
	orders.settleErr = errors.New("write failed")
	p := NewProcessor(orders, nil)

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"orderId": "42", "userId": "7"}))

	// First delivery fails mid-settle; the unit rolled back, so no
	// event id may be left behind.
	require.Error(t, p.Process(context.Background(), ev))
	require.Empty(t, orders.events)
	require.Empty(t, orders.addresses)

	// The provider redelivers; the retry must complete the payment
	// rather than be swallowed as a duplicate.
	require.NoError(t, p.Process(context.Background(), ev))
	got, _ := orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPaid, got.PaymentStatus)
	require.Len(t, orders.addresses, 1)
}

func TestProcessConcurrentDeliveries(t *testing.T) {
	orders := newFakeOrders(pendingOrder(42, 7))
	p := NewProcessor(orders, nil)

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"orderId": "42", "userId": "7"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, p.Process(context.Background(), ev))
		}()
	}
	wg.Wait()

	require.Len(t, orders.addresses, 1)
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	p := NewProcessor(newFakeOrders(), nil)
	ev := Event{ID: "evt_x", Type: "invoice.created"}
	require.ErrorIs(t, p.Process(context.Background(), ev), ErrUnsupportedEvent)
}

func TestProcessRejectsMissingMetadata(t *testing.T) {
	orders := newFakeOrders(pendingOrder(42, 7))
	p := NewProcessor(orders, nil)

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"userId": "7"}))
	require.ErrorIs(t, p.Process(context.Background(), ev), ErrMetadataMissing)

	got, _ := orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPending, got.PaymentStatus)
	require.Empty(t, orders.addresses)
}

func TestProcessMissingOrderIsRetryable(t *testing.T) {
	orders := newFakeOrders()
	p := NewProcessor(orders, nil)

	ev := parse(t, completedEventJSON("evt_1", map[string]string{"orderId": "42", "userId": "7"}))
	require.ErrorIs(t, p.Process(context.Background(), ev), ErrOrderMissing)
	// Nothing was recorded, so a redelivery after the order shows up
	// can still succeed.
	require.Empty(t, orders.events)

	orders.mu.Lock()
	o := pendingOrder(42, 7)
	orders.orders[42] = &o
	orders.mu.Unlock()

	require.NoError(t, p.Process(context.Background(), ev))
	got, _ := orders.GetByID(context.Background(), 42)
	require.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

func TestProcessAlreadyPaidOrder(t *testing.T) {
	paid := pendingOrder(42, 7)
	paid.PaymentStatus = model.PaymentPaid
	orders := newFakeOrders(paid)
	notifies := 0
	p := NewProcessor(orders, func(context.Context, queue.OrderPaidEvent) error {
		notifies++
		return nil
	})

	// A different event id targeting an already-Paid order: acknowledged
	// without creating anything.
	ev := parse(t, completedEventJSON("evt_2", map[string]string{"orderId": "42", "userId": "7"}))
	require.NoError(t, p.Process(context.Background(), ev))
	require.Empty(t, orders.addresses)
	require.Equal(t, 0, notifies)
}
