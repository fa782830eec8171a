// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for DrShaadi.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: DRSHAADI_MONGO_URI, DRSHAADI_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "drshaadi", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "JWT signing secret (must be set in production)"},
	{Name: "jwt_algorithm", Default: "HS256", Desc: "JWT signing algorithm: HS256, HS384 or HS512"},
	{Name: "jwt_expiry", Default: "30m", Desc: "Access token lifetime (e.g., 30m, 24h)"},

	// One-time codes
	{Name: "otp_expiry", Default: "5m", Desc: "OTP lifetime"},
	{Name: "otp_length", Default: 4, Desc: "Number of digits in an OTP (4-10)"},
	{Name: "otp_max_attempts", Default: 3, Desc: "Wrong guesses allowed before an OTP is burned"},
	{Name: "otp_fixed_code", Default: "", Desc: "Issue this code instead of a random one (demo only; refused in prod)"},
	{Name: "otp_bcrypt_cost", Default: 10, Desc: "bcrypt cost for stored OTP hashes"},
	{Name: "otp_send_limit", Default: 5, Desc: "OTP sends allowed per mobile number per window"},
	{Name: "otp_send_window", Default: "15m", Desc: "Window for otp_send_limit"},
	{Name: "otp_ip_per_minute", Default: 20, Desc: "OTP sends allowed per client IP per minute (0 disables)"},
	{Name: "otp_ip_burst", Default: 5, Desc: "Burst size for otp_ip_per_minute"},

	// Register/login checks
	{Name: "auth_require_verified_otp", Default: false, Desc: "Require a recently verified OTP for register and login"},
	{Name: "auth_verified_otp_window", Default: "15m", Desc: "How recent the OTP verification must be"},

	// SMS delivery
	{Name: "sms_provider", Default: "log", Desc: "SMS provider: 'log' or 'twilio'"},
	{Name: "twilio_account_sid", Default: "", Desc: "Twilio account SID"},
	{Name: "twilio_auth_token", Default: "", Desc: "Twilio auth token"},
	{Name: "twilio_from_number", Default: "", Desc: "Twilio sender number"},

	// HTTP
	{Name: "api_prefix", Default: "/api/v1", Desc: "Path prefix for the API routes"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is believed (blank trusts none)"},
	{Name: "cors_allowed_origins", Default: "http://localhost:3000,http://localhost:8080,http://localhost:8000,http://127.0.0.1:3000,http://127.0.0.1:8080,http://127.0.0.1:8000", Desc: "Comma-separated CORS origins (blank disables CORS)"},
	{Name: "debug", Default: false, Desc: "Return raw error text on 5xx responses"},

	// Redis (optional)
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared OTP send limits (blank uses in-memory limits)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_family", Default: "all", Desc: "Family event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_profile", Default: "db", Desc: "Profile event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and moderate writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for multi-collection operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, DRSHAADI_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DRSHAADI", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTAlgorithm: appValues.String("jwt_algorithm"),
		JWTExpiry:    appValues.Duration("jwt_expiry", 30*time.Minute),

		OTPExpiry:      appValues.Duration("otp_expiry", 5*time.Minute),
		OTPLength:      appValues.Int("otp_length"),
		OTPMaxAttempts: appValues.Int("otp_max_attempts"),
		OTPFixedCode:   strings.TrimSpace(appValues.String("otp_fixed_code")),
		OTPBcryptCost:  appValues.Int("otp_bcrypt_cost"),

		OTPSendLimit:   appValues.Int("otp_send_limit"),
		OTPSendWindow:  appValues.Duration("otp_send_window", 15*time.Minute),
		OTPIPPerMinute: appValues.Int("otp_ip_per_minute"),
		OTPIPBurst:     appValues.Int("otp_ip_burst"),

		AuthRequireVerifiedOTP: appValues.Bool("auth_require_verified_otp"),
		AuthVerifiedOTPWindow:  appValues.Duration("auth_verified_otp_window", 15*time.Minute),

		SMSProvider:      strings.ToLower(strings.TrimSpace(appValues.String("sms_provider"))),
		TwilioAccountSID: appValues.String("twilio_account_sid"),
		TwilioAuthToken:  appValues.String("twilio_auth_token"),
		TwilioFromNumber: appValues.String("twilio_from_number"),

		APIPrefix:          normalizePrefix(appValues.String("api_prefix")),
		TrustedProxies:     splitList(appValues.String("trusted_proxies")),
		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		Debug:              appValues.Bool("debug"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogFamily:  appValues.String("audit_log_family"),
		AuditLogProfile: appValues.String("audit_log_profile"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizePrefix returns "" or a path starting with "/" and without a
// trailing slash.
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// devJWTSecret is the shipped jwt_secret default. It is public, so
// production refuses it.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest JWT secret accepted in production.
const minProdSecretLen = 32

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// DrShaadi checks the MongoDB URI format and the token, OTP and SMS
// settings so misconfiguration fails fast, before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	prod := coreCfg != nil && coreCfg.Env == "prod"

	if _, err := auth.SigningMethod(appCfg.JWTAlgorithm); err != nil {
		return err
	}
	if strings.TrimSpace(appCfg.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if prod && appCfg.JWTSecret == devJWTSecret {
		return fmt.Errorf("jwt_secret must be set in production; the default is not secret")
	}
	if prod && len(appCfg.JWTSecret) < minProdSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters in production", minProdSecretLen)
	}
	if appCfg.JWTExpiry <= 0 {
		return fmt.Errorf("jwt_expiry must be positive")
	}

	if appCfg.OTPLength < 4 || appCfg.OTPLength > 10 {
		return fmt.Errorf("otp_length must be between 4 and 10, got %d", appCfg.OTPLength)
	}
	if appCfg.OTPMaxAttempts < 1 {
		return fmt.Errorf("otp_max_attempts must be at least 1")
	}
	if appCfg.OTPExpiry <= 0 {
		return fmt.Errorf("otp_expiry must be positive")
	}
	if code := appCfg.OTPFixedCode; code != "" {
		if prod {
			return fmt.Errorf("otp_fixed_code is not allowed in production")
		}
		if len(code) != appCfg.OTPLength || strings.Trim(code, "0123456789") != "" {
			return fmt.Errorf("otp_fixed_code must be %d digits", appCfg.OTPLength)
		}
	}
	if appCfg.OTPSendLimit < 0 || appCfg.OTPIPPerMinute < 0 {
		return fmt.Errorf("otp send limits must not be negative")
	}

	if _, err := ratelimit.TrustedProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted_proxies: %w", err)
	}

	switch appCfg.SMSProvider {
	case "log":
		if prod {
			logger.Warn("sms_provider=log in production: codes are written to the log, not delivered")
		}
	case "twilio":
		if appCfg.TwilioAccountSID == "" || appCfg.TwilioAuthToken == "" || appCfg.TwilioFromNumber == "" {
			return fmt.Errorf("sms_provider=twilio requires twilio_account_sid, twilio_auth_token and twilio_from_number")
		}
	default:
		return fmt.Errorf("unknown sms_provider %q (want 'log' or 'twilio')", appCfg.SMSProvider)
	}

	for key, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_family":  appCfg.AuditLogFamily,
		"audit_log_profile": appCfg.AuditLogProfile,
	} {
		if !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}

	return nil
}
