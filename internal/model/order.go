package model

import "time"

// Payment status values for orders.payment_status. An order is
// created Pending; the only transition out of Pending is Paid (driven by
// the payment webhook) or Cancelled. Paid and Cancelled are terminal.
const (
    PaymentPending   = "Pending"
    PaymentPaid      = "Paid"
    PaymentCancelled = "Cancelled"
)

// Shipping status values for orders.shipping_status. Advances
// monotonically and only by an admin, and only once the order is Paid.
const (
    ShippingAwaiting  = "awaiting shipping"
    ShippingFulfilled = "fulfilled"
    ShippingShipped   = "shipped"
)

// shippingRank orders the shipping states for the monotonic-advance check.
func shippingRank(s string) int {
    switch s {
    case ShippingAwaiting:
        return 0
    case ShippingFulfilled:
        return 1
    case ShippingShipped:
        return 2
    }
    return -1
}

// IsShippingStatus reports whether s is one of the known shipping states.
func IsShippingStatus(s string) bool { return shippingRank(s) >= 0 }

// CanAdvanceShipping reports whether a shipping status change is legal:
// both states must be known and the new one strictly later. Shipping
// never moves backwards.
func CanAdvanceShipping(current, next string) bool {
    c, n := shippingRank(current), shippingRank(next)
    return c >= 0 && n >= 0 && n > c
}

// Order mirrors the `orders` table. Payment and shipping status are two
// independent dimensions: the webhook path owns payment_status and the
// admin path owns shipping_status. AddressID is set exactly once, when
// the completed-checkout event for the order is first processed.
type Order struct {
    ID             uint64     // orders.id
    UserID         uint64     // orders.user_id
    PhoneCaseID    *uint64    // orders.phone_case_id (nullable line item)
    AddressID      *uint64    // orders.address_id (nullable until paid)
    PaymentStatus  string     // orders.payment_status
    ShippingStatus string     // orders.shipping_status
    CreatedAt      time.Time  // orders.created_at
    UpdatedAt      time.Time  // orders.updated_at
}

// Address is an immutable snapshot of the shipping and contact details
// carried by a completed-checkout event. One row is created per first
// processing of a payment event and linked to exactly one order; rows
// are never updated afterwards.
type Address struct {
    ID       uint64    // addresses.id
    Name     string    // addresses.name
    Street   string    // addresses.street
    City     string    // addresses.city
    State    string    // addresses.state
    Zipcode  string    // addresses.zipcode
    Phone    string    // addresses.phone
    Email    string    // addresses.email
    CreatedAt time.Time // addresses.created_at
}

// PhoneCase is a customer-configured catalog item referenced by an order
// as its line item. This core only reads it (description and price for
// the checkout session); creation belongs to the upload/catalog surface.
type PhoneCase struct {
    ID         uint64    // phone_cases.id
    Color      string    // phone_cases.color
    Finish     string    // phone_cases.finish
    Material   string    // phone_cases.material
    CaseModel  string    // phone_cases.case_model
    PriceCents uint64    // phone_cases.price_cents
    CreatedAt  time.Time // phone_cases.created_at
}

// ProcessedPaymentEvent records a provider event id once consumed. The
// event_id column is the primary key, so inserting it a second time
// fails, which is what makes webhook redelivery idempotent.
type ProcessedPaymentEvent struct {
    EventID     string    // processed_payment_events.event_id
    OrderID     uint64    // processed_payment_events.order_id
    ProcessedAt time.Time // processed_payment_events.processed_at
}
