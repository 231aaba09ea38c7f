package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time is used for the provider call timeout
)

// Config holds all runtime configuration values. It is built once at
// startup and passed by value into the constructors that need it; no
// business code reads the environment directly. Secrets are plain
// strings: two independent JWT signing keys, the payment provider API
// key and the webhook endpoint secret.
type Config struct {
    Env                string        // application environment (e.g. "dev", "prod")
    Port               string        // HTTP port to listen on
    DBUser             string        // database username
    DBPass             string        // database password (optional)
    DBHost             string        // database host address
    DBPort             string        // database port number
    DBName             string        // database name
    AccessTokenKey     string        // secret used to sign access JWTs
    RefreshTokenKey    string        // secret used to sign refresh JWTs
    AccessTTLMin       int           // access token time-to-live in minutes
    RefreshTTLDays     int           // refresh token time-to-live in days
    BcryptCost         int           // bcrypt cost for password hashing
    PaymentSecretKey   string        // payment provider API secret key
    PaymentAPIURL      string        // payment provider API base URL
    WebhookSecret      string        // shared secret for webhook signatures
    CheckoutSuccessURL string        // redirect target after a successful checkout
    CheckoutCancelURL  string        // redirect target after a cancelled checkout
    ProviderTimeout    time.Duration // bound on outbound provider calls
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:                must("APP_ENV"),
        Port:               must("APP_PORT"),
        DBUser:             must("DB_USER"),
        DBPass:             os.Getenv("DB_PASS"), // empty allowed
        DBHost:             must("DB_HOST"),
        DBPort:             must("DB_PORT"),
        DBName:             must("DB_NAME"),
        AccessTokenKey:     must("ACCESS_TOKEN_KEY"),
        RefreshTokenKey:    must("REFRESH_TOKEN_KEY"),
        AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:         mustInt("BCRYPT_COST"),
        PaymentSecretKey:   must("PAYMENT_SECRET_KEY"),
        PaymentAPIURL:      envStr("PAYMENT_API_URL", "https://api.stripe.com"),
        WebhookSecret:      must("WEBHOOK_ENDPOINT_SECRET"),
        CheckoutSuccessURL: must("CHECKOUT_SUCCESS_URL"),
        CheckoutCancelURL:  must("CHECKOUT_CANCEL_URL"),
        ProviderTimeout:    envDur("PAYMENT_PROVIDER_TIMEOUT", 10*time.Second),
    }
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
