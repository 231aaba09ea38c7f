package payment

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/casecraft/internal/model"
    "github.com/iliyamo/casecraft/internal/queue"
    "github.com/iliyamo/casecraft/internal/repository"
)

// ErrOrderMissing is returned when a verified event references an order
// that does not exist. This is a data-integrity fault and must surface
// as a non-2xx response so the provider redelivers instead of the fault
// disappearing into a silent acknowledgement.
var ErrOrderMissing = errors.New("payment event references unknown order")

// OrderStore is the slice of the order ledger the processor needs.
// SettlePayment is the whole consumption as one atomic unit: recording
// the event id, creating the address snapshot and the Pending->Paid
// transition either all commit or none do. If the unit fails partway,
// nothing is recorded and the provider's redelivery retries it from
// scratch; a half-settled order cannot exist.
type OrderStore interface {
    GetByID(ctx context.Context, id uint64) (model.Order, error)
    SettlePayment(ctx context.Context, orderID uint64, eventID string, addr model.Address) (bool, error)
}

// Notifier publishes the order.paid fan-out event. Failures are logged,
// never propagated: downstream notification must not fail the webhook.
type Notifier func(ctx context.Context, ev queue.OrderPaidEvent) error

// Processor consumes verified payment events and drives the order
// ledger. Deliveries are at-least-once, so consumption is idempotent:
// the processed-event insert inside SettlePayment is the single-winner
// gate and the status update is conditional on the order still being
// Pending.
type Processor struct {
    orders OrderStore
    notify Notifier
}

func NewProcessor(orders OrderStore, notify Notifier) *Processor {
    return &Processor{orders: orders, notify: notify}
}

// Process handles one verified event. The caller has already checked
// the signature over the raw body; everything after that lives here so
// the full consumption contract is testable without HTTP.
//
// Ordering matters: the order lookup happens before the event id is
// recorded, so an event for a missing order leaves no trace and a later
// redelivery (after the order appears) can still succeed.
func (p *Processor) Process(ctx context.Context, e Event) error {
    if e.Type != EventCheckoutCompleted {
        return ErrUnsupportedEvent
    }
    orderID, userID, err := e.OrderAndUser()
    if err != nil {
        return err
    }

    order, err := p.orders.GetByID(ctx, orderID)
    if errors.Is(err, repository.ErrNotFound) {
        return fmt.Errorf("%w: order %d (event %s)", ErrOrderMissing, orderID, e.ID)
    }
    if err != nil {
        return err
    }
    if order.UserID != userID {
        log.Printf("webhook: event %s metadata user %d does not match order %d owner %d", e.ID, userID, orderID, order.UserID)
    }

    if order.PaymentStatus == model.PaymentPaid {
        return nil
    }

    applied, err := p.orders.SettlePayment(ctx, orderID, e.ID, e.Address())
    if err != nil {
        // The unit rolled back; nothing was recorded, so the provider's
        // redelivery retries the whole consumption.
        return err
    }
    if !applied {
        // Duplicate delivery, or a concurrent delivery won the
        // transition between our read and the settle.
        return nil
    }

    if p.notify != nil {
        ev := queue.OrderPaidEvent{
            OrderID: orderID,
            UserID:  order.UserID,
            EventID: e.ID,
            PaidAt:  time.Now().UTC().Format(time.RFC3339),
        }
        if err := p.notify(ctx, ev); err != nil {
            log.Printf("webhook: order.paid publish failed for order %d: %v", orderID, err)
        }
    }
    return nil
}
