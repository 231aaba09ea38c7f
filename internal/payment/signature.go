package payment // package payment implements the provider boundary: webhook verification and checkout sessions

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"
)

// ErrSignature is returned when a webhook delivery fails signature
// verification. No state may change after this error.
var ErrSignature = errors.New("webhook signature invalid")

// Tolerance window for the signed timestamp. Deliveries older (or more
// in the future) than this are rejected even with a valid MAC, bounding
// how long a captured request stays replayable.
const signatureTolerance = 5 * time.Minute

// VerifySignature validates the provider's signature header against the
// exact raw request body. The header has the form "t=<unix>,v1=<hex>"
// and the MAC is HMAC-SHA256 over "<t>.<body>" keyed with the shared
// endpoint secret. Multiple v1 entries are accepted (secret rollover);
// comparison is constant-time.
func VerifySignature(secret, header string, body []byte, now time.Time) error {
    var ts int64
    var macs []string
    for _, part := range strings.Split(header, ",") {
        k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
        if !ok {
            continue
        }
        switch k {
        case "t":
            n, err := strconv.ParseInt(v, 10, 64)
            if err != nil {
                return ErrSignature
            }
            ts = n
        case "v1":
            macs = append(macs, v)
        }
    }
    if ts == 0 || len(macs) == 0 {
        return ErrSignature
    }

    sent := time.Unix(ts, 0)
    if now.Sub(sent) > signatureTolerance || sent.Sub(now) > signatureTolerance {
        return ErrSignature
    }

    expected := computeMAC(secret, ts, body)
    for _, m := range macs {
        if hmac.Equal([]byte(m), []byte(expected)) {
            return nil
        }
    }
    return ErrSignature
}

// SignPayload produces a signature header for a body, as the provider
// would. Used by tests and by local tooling that replays events.
func SignPayload(secret string, t time.Time, body []byte) string {
    ts := t.Unix()
    return fmt.Sprintf("t=%d,v1=%s", ts, computeMAC(secret, ts, body))
}

func computeMAC(secret string, ts int64, body []byte) string {
    mac := hmac.New(sha256.New, []byte(secret))
    fmt.Fprintf(mac, "%d.", ts)
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}
