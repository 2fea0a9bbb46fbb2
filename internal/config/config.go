package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time parses timeout durations
)

// EsewaConfig carries the credentials and endpoints of the eSewa
// signed-redirect channel.  All three fields must be present for the
// channel to be considered configured.
type EsewaConfig struct {
    MerchantCode string // product_code sent with every signed request
    SecretKey    string // HMAC secret shared with eSewa
    BaseURL      string // form-post target the payer is redirected to
}

// Configured reports whether every required eSewa field is present.
func (c EsewaConfig) Configured() bool {
    return c.MerchantCode != "" && c.SecretKey != "" && c.BaseURL != ""
}

// KhaltiConfig carries the credentials and endpoints of the Khalti
// token-lookup channel.
type KhaltiConfig struct {
    SecretKey string // server-to-server authorization key
    BaseURL   string // e-payment API base, e.g. https://a.khalti.com/api/v2
}

// Configured reports whether every required Khalti field is present.
func (c KhaltiConfig) Configured() bool {
    return c.SecretKey != "" && c.BaseURL != ""
}

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  It is loaded exactly once at startup and
// injected into the components that need it; nothing reads the process
// environment after Load returns.
type Config struct {
    Env         string        // application environment (e.g. "dev", "prod")
    Port        string        // HTTP port to listen on
    DBUser      string        // database username
    DBPass      string        // database password (optional)
    DBHost      string        // database host address
    DBPort      string        // database port number
    DBName      string        // database name
    JWTSecret   string        // secret used to verify access tokens
    FrontendURL string        // client app base, target of payment outcome redirects
    BackendURL  string        // this service's public base, used in gateway callback URLs
    AMQPURL     string        // RabbitMQ connection URL (optional, events skipped when empty)
    HTTPTimeout time.Duration // upper bound for outbound gateway calls
    Esewa       EsewaConfig   // eSewa channel credentials (optional as a set)
    Khalti      KhaltiConfig  // Khalti channel credentials (optional as a set)
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Channel credential
// sets are optional: a deployment may enable only some channels, and
// initiating a payment on an unconfigured channel fails with a hard
// precondition error instead.
func Load() Config {
    return Config{
        Env:         must("APP_ENV"),       // environment (dev/test/prod)
        Port:        must("APP_PORT"),      // port to bind the HTTP server
        DBUser:      must("DB_USER"),       // database user
        DBPass:      os.Getenv("DB_PASS"),  // database password (empty allowed)
        DBHost:      must("DB_HOST"),       // database host
        DBPort:      must("DB_PORT"),       // database port
        DBName:      must("DB_NAME"),       // database name
        JWTSecret:   must("JWT_SECRET"),    // secret used for verifying JWTs
        FrontendURL: must("FRONTEND_URL"),  // payment outcome redirect base
        BackendURL:  must("BACKEND_URL"),   // callback URL base handed to gateways
        AMQPURL:     os.Getenv("RABBITMQ_URL"),
        HTTPTimeout: envDuration("GATEWAY_HTTP_TIMEOUT", 10*time.Second),
        Esewa: EsewaConfig{
            MerchantCode: os.Getenv("ESEWA_MERCHANT_CODE"),
            SecretKey:    os.Getenv("ESEWA_SECRET_KEY"),
            BaseURL:      os.Getenv("ESEWA_BASE_URL"),
        },
        Khalti: KhaltiConfig{
            SecretKey: os.Getenv("KHALTI_SECRET_KEY"),
            BaseURL:   os.Getenv("KHALTI_BASE_URL"),
        },
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envDuration reads an optional duration variable, falling back to the
// provided default when unset or unparsable.
func envDuration(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil || d <= 0 {
        log.Printf("config: invalid duration for %s: %q, using %s", key, v, def)
        return def
    }
    return d
}
