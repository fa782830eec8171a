// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.OTPFixedCode != "" {
		logger.Warn("otp_fixed_code is set: every OTP issued is the same code; never use this outside demos")
	}
	if appCfg.Debug {
		logger.Warn("debug is on: 5xx responses carry raw error text")
	}

	limiter := "memory"
	if deps.Redis != nil {
		limiter = "redis"
	}
	t := timeouts.Current()
	logger.Info("drshaadi starting",
		zap.String("sms_provider", appCfg.SMSProvider),
		zap.String("otp_send_limiter", limiter),
		zap.Bool("require_verified_otp", appCfg.AuthRequireVerifiedOTP),
		zap.String("api_prefix", appCfg.APIPrefix),
		zap.Int("trusted_proxies", len(appCfg.TrustedProxies)),
		zap.Duration("timeout_short", t.Short),
		zap.Duration("timeout_medium", t.Medium),
		zap.Duration("timeout_long", t.Long))
	return nil
}
