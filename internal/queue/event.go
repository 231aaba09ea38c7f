package queue

// OrderPaidEvent is published when the payment webhook transitions an
// order to Paid. It carries enough for downstream consumers (fulfillment
// logging, notifications) without querying the primary database.
type OrderPaidEvent struct {
    OrderID uint64 `json:"order_id"`
    UserID  uint64 `json:"user_id"`
    EventID string `json:"provider_event_id"`
    PaidAt  string `json:"paid_at"`
}
