package payment

import (
    "encoding/json"
    "errors"
    "strconv"

    "github.com/iliyamo/casecraft/internal/model"
)

// EventCheckoutCompleted is the only event kind this processor consumes.
const EventCheckoutCompleted = "checkout.session.completed"

// Sentinel written into optional address fields the provider did not
// supply. Absence of an optional field is not an error.
const fieldMissing = "N/A"

var (
    // ErrUnsupportedEvent is returned for any event kind other than
    // checkout.session.completed.
    ErrUnsupportedEvent = errors.New("unsupported event type")
    // ErrMetadataMissing is returned when the event metadata lacks the
    // orderId or userId that checkout embedded.
    ErrMetadataMissing = errors.New("event metadata missing orderId or userId")
)

// Event is the provider's webhook envelope. The metadata map carries
// back verbatim whatever the checkout session embedded, which is how
// the order and user ids travel through the provider.
type Event struct {
    ID   string `json:"id"`
    Type string `json:"type"`
    Data struct {
        Object CheckoutObject `json:"object"`
    } `json:"data"`
}

// CheckoutObject is the completed checkout session inside the event.
type CheckoutObject struct {
    ID              string            `json:"id"`
    Metadata        map[string]string `json:"metadata"`
    CustomerDetails CustomerDetails   `json:"customer_details"`
    ShippingDetails ShippingDetails   `json:"shipping_details"`
}

type CustomerDetails struct {
    Name  string `json:"name"`
    Email string `json:"email"`
    Phone string `json:"phone"`
}

type ShippingDetails struct {
    Name    string `json:"name"`
    Address struct {
        Line1      string `json:"line1"`
        City       string `json:"city"`
        State      string `json:"state"`
        PostalCode string `json:"postal_code"`
        Country    string `json:"country"`
    } `json:"address"`
}

// ParseEvent decodes a raw webhook body. Call VerifySignature on the
// same bytes first; parsing does not authenticate anything.
func ParseEvent(body []byte) (Event, error) {
    var e Event
    if err := json.Unmarshal(body, &e); err != nil {
        return Event{}, err
    }
    return e, nil
}

// OrderAndUser extracts the order and user ids from event metadata.
// Both must be present and numeric.
func (e Event) OrderAndUser() (orderID, userID uint64, err error) {
    md := e.Data.Object.Metadata
    orderID, err = parseIDField(md["orderId"])
    if err != nil {
        return 0, 0, ErrMetadataMissing
    }
    userID, err = parseIDField(md["userId"])
    if err != nil {
        return 0, 0, ErrMetadataMissing
    }
    return orderID, userID, nil
}

func parseIDField(s string) (uint64, error) {
    if s == "" {
        return 0, ErrMetadataMissing
    }
    return strconv.ParseUint(s, 10, 64)
}

// Address builds the immutable address snapshot from the event's
// shipping and customer details. The shipping name wins over the
// customer name when both are set; missing optional fields get the
// sentinel, and the city is a "city, country" composite.
func (e Event) Address() model.Address {
    ship := e.Data.Object.ShippingDetails
    cust := e.Data.Object.CustomerDetails

    name := ship.Name
    if name == "" {
        name = cust.Name
    }
    city := ship.Address.City
    if ship.Address.Country != "" {
        if city == "" {
            city = ship.Address.Country
        } else {
            city = city + ", " + ship.Address.Country
        }
    }
    return model.Address{
        Name:    orSentinel(name),
        Street:  orSentinel(ship.Address.Line1),
        City:    orSentinel(city),
        State:   orSentinel(ship.Address.State),
        Zipcode: orSentinel(ship.Address.PostalCode),
        Phone:   orSentinel(cust.Phone),
        Email:   orSentinel(cust.Email),
    }
}

func orSentinel(s string) string {
    if s == "" {
        return fieldMissing
    }
    return s
}
