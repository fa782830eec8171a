// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/drshaadi/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/drshaadi/internal/app/features/errors"
	familyfeature "github.com/dalemusser/drshaadi/internal/app/features/family"
	healthfeature "github.com/dalemusser/drshaadi/internal/app/features/health"
	homefeature "github.com/dalemusser/drshaadi/internal/app/features/home"
	mobileauthfeature "github.com/dalemusser/drshaadi/internal/app/features/mobileauth"
	profilefeature "github.com/dalemusser/drshaadi/internal/app/features/profile"
	familyservice "github.com/dalemusser/drshaadi/internal/app/services/family"
	otpservice "github.com/dalemusser/drshaadi/internal/app/services/otp"
	profileservice "github.com/dalemusser/drshaadi/internal/app/services/profile"
	auditstore "github.com/dalemusser/drshaadi/internal/app/store/audit"
	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/metrics"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/dalemusser/drshaadi/internal/app/system/sms"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	apiName    = "DrShaadi API"
	apiVersion = "1.0.0"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// DrShaadi builds the token-based session manager, the services shared by
// the features, and mounts the auth, family, profile and activity routers
// under the configured API prefix. /health and /metrics stay at the root.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTAlgorithm, appCfg.JWTExpiry)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr := auth.NewSessionManager(tokens, logger)

	// Fetch the user on every request so deactivated accounts lose access
	// immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	m := metrics.New()
	if err := m.RegisterStoreGauges(db); err != nil {
		logger.Error("store gauges registration failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger, appCfg.Debug)
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Family:  appCfg.AuditLogFamily,
		Profile: appCfg.AuditLogProfile,
	})

	// Services
	otpSvc := otpservice.New(db, newSMSSender(appCfg, logger), otpservice.Config{
		Expiry:      appCfg.OTPExpiry,
		Length:      appCfg.OTPLength,
		MaxAttempts: appCfg.OTPMaxAttempts,
		FixedCode:   appCfg.OTPFixedCode,
		BcryptCost:  appCfg.OTPBcryptCost,
	}, logger)
	familySvc := familyservice.New(db, logger)
	profileSvc := profileservice.New(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if len(appCfg.TrustedProxies) > 0 {
		realIP, err := ratelimit.TrustedProxies(appCfg.TrustedProxies)
		if err != nil {
			return nil, err
		}
		r.Use(realIP)
	}
	r.Use(m.Middleware)
	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Global auth middleware: loads SessionUser into context when the request
	// carries a valid bearer token.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	homeHandler := homefeature.NewHandler(apiName, apiVersion, appCfg.APIPrefix, logger)
	r.Get("/", homeHandler.ServeRoot)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.Debug, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", m.Handler())

	authHandler := mobileauthfeature.NewHandler(db, otpSvc, familySvc, tokens, errLog, audit, m,
		deps.SendLimiter, mobileauthfeature.Options{
			RequireVerifiedOTP: appCfg.AuthRequireVerifiedOTP,
			VerifiedOTPWindow:  appCfg.AuthVerifiedOTPWindow,
		}, logger)
	familyHandler := familyfeature.NewHandler(familySvc, errLog, audit, m, logger)
	profileHandler := profilefeature.NewHandler(profileSvc, errLog, audit, logger)
	activityHandler := auditlogfeature.NewHandler(db, errLog, logger)
	ipLimiter := newIPLimiter(appCfg)

	mountAPI := func(api chi.Router) {
		api.Mount("/auth", mobileauthfeature.Routes(authHandler, sessionMgr, ipLimiter))
		api.Mount("/family", familyfeature.Routes(familyHandler, sessionMgr))
		api.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))
		api.Mount("/activity", auditlogfeature.Routes(activityHandler, sessionMgr))
	}
	if appCfg.APIPrefix == "" {
		mountAPI(r)
	} else {
		r.Route(appCfg.APIPrefix, mountAPI)
	}

	return r, nil
}

// newSMSSender returns the configured OTP delivery channel.
func newSMSSender(appCfg AppConfig, logger *zap.Logger) sms.Sender {
	if appCfg.SMSProvider == "twilio" {
		return sms.NewTwilioSender(appCfg.TwilioAccountSID, appCfg.TwilioAuthToken, appCfg.TwilioFromNumber, logger)
	}
	return sms.LogSender{Log: logger}
}

func newIPLimiter(appCfg AppConfig) *ratelimit.IPLimiter {
	if appCfg.OTPIPPerMinute <= 0 {
		return nil
	}
	burst := appCfg.OTPIPBurst
	if burst <= 0 {
		burst = 1
	}
	return ratelimit.NewIPLimiter(appCfg.OTPIPPerMinute, burst)
}
