package payment

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"
)

// ErrProvider is returned for any failure talking to the payment
// provider: transport errors, timeouts and non-2xx responses all map
// here so callers surface one upstream-failure status.
var ErrProvider = errors.New("payment provider error")

// CheckoutParams describes one hosted-checkout session: a single line
// item, the buyer identity and order id as opaque metadata (the
// provider echoes metadata back verbatim in the completion event), and
// the redirect targets.
type CheckoutParams struct {
    Description string
    AmountCents uint64
    Currency    string
    OrderID     uint64
    UserID      uint64
    SuccessURL  string
    CancelURL   string
}

// CheckoutSession is the provider's handle for a created session. The
// client is redirected to URL to complete payment.
type CheckoutSession struct {
    ID  string `json:"id"`
    URL string `json:"url"`
}

// Provider is the boundary to the hosted-checkout provider. The HTTP
// client below is the real implementation; tests substitute fakes.
type Provider interface {
    CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error)
}

// Client talks to the provider's REST API with a bounded timeout. It
// holds no state beyond credentials.
type Client struct {
    secretKey string
    baseURL   string
    http      *http.Client
}

func NewClient(secretKey, baseURL string, timeout time.Duration) *Client {
    return &Client{
        secretKey: secretKey,
        baseURL:   strings.TrimRight(baseURL, "/"),
        http:      &http.Client{Timeout: timeout},
    }
}

// CreateCheckoutSession builds the form-encoded session request. Any
// failure, including the bounded timeout, is wrapped in ErrProvider.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error) {
    form := url.Values{}
    form.Set("mode", "payment")
    form.Set("line_items[0][price_data][currency]", p.Currency)
    form.Set("line_items[0][price_data][product_data][name]", p.Description)
    form.Set("line_items[0][price_data][unit_amount]", strconv.FormatUint(p.AmountCents, 10))
    form.Set("line_items[0][quantity]", "1")
    form.Set("metadata[orderId]", strconv.FormatUint(p.OrderID, 10))
    form.Set("metadata[userId]", strconv.FormatUint(p.UserID, 10))
    form.Set("shipping_address_collection[allowed_countries][0]", "US")
    form.Set("success_url", p.SuccessURL)
    form.Set("cancel_url", p.CancelURL)

    req, err := http.NewRequestWithContext(ctx, http.MethodPost,
        c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
    if err != nil {
        return CheckoutSession{}, fmt.Errorf("%w: %v", ErrProvider, err)
    }
    req.Header.Set("Authorization", "Bearer "+c.secretKey)
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    resp, err := c.http.Do(req)
    if err != nil {
        return CheckoutSession{}, fmt.Errorf("%w: %v", ErrProvider, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return CheckoutSession{}, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
    }
    var s CheckoutSession
    if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
        return CheckoutSession{}, fmt.Errorf("%w: %v", ErrProvider, err)
    }
    return s, nil
}
