// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and request body limits. Everything specific to DrShaadi
// lives here and is passed to the lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret    string        // HMAC signing secret (must be strong in production)
	JWTAlgorithm string        // HS256, HS384 or HS512
	JWTExpiry    time.Duration // access token lifetime

	// One-time codes
	OTPExpiry      time.Duration
	OTPLength      int
	OTPMaxAttempts int
	OTPFixedCode   string // demo deployments only; refused in prod
	OTPBcryptCost  int

	// OTP send throttling
	OTPSendLimit   int           // sends per mobile number per window
	OTPSendWindow  time.Duration // window for OTPSendLimit
	OTPIPPerMinute int           // sends per client IP per minute (0 disables)
	OTPIPBurst     int

	// Register/login require a recently verified OTP when set.
	AuthRequireVerifiedOTP bool
	AuthVerifiedOTPWindow  time.Duration

	// SMS delivery: "log" or "twilio"
	SMSProvider      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// HTTP
	APIPrefix          string   // feature routers mount under this path (e.g., /api/v1)
	TrustedProxies     []string // peers allowed to set the client IP via forwarding headers
	CORSAllowedOrigins []string // empty disables CORS headers
	Debug              bool     // exposes raw 5xx error text to clients

	// Redis (optional; shares OTP send limits across instances)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogFamily  string
	AuditLogProfile string

	// Store operation timeouts (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
