// internal/app/features/mobileauth/handler.go
package mobileauth

import (
	"time"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	familyservice "github.com/dalemusser/drshaadi/internal/app/services/family"
	otpservice "github.com/dalemusser/drshaadi/internal/app/services/otp"
	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/metrics"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Caller-facing messages.
const (
	MsgInvalidOTP      = "Invalid OTP"
	MsgOTPVerified     = "OTP verified successfully"
	MsgUserExists      = "User already exists"
	MsgUserNotFound    = "User not found"
	MsgNotVerified     = "mobile number not verified"
	MsgTooManyRequests = "Too many OTP requests. Please try again later."
)

// DefaultVerifiedOTPWindow is how recent an OTP verification must be for
// register and login to accept it.
const DefaultVerifiedOTPWindow = 15 * time.Minute

// Options tune the register and login checks.
type Options struct {
	// RequireVerifiedOTP makes register and login demand an OTP verified
	// for the number within VerifiedOTPWindow.
	RequireVerifiedOTP bool
	VerifiedOTPWindow  time.Duration
}

type Handler struct {
	Users       *userstore.Store
	OTP         *otpservice.Service
	Families    *familyservice.Service
	Tokens      *auth.TokenManager
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
	Metrics     *metrics.Metrics
	SendLimiter ratelimit.KeyLimiter // per mobile number; nil disables
	Opts        Options
	Log         *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	otp *otpservice.Service,
	families *familyservice.Service,
	tokens *auth.TokenManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	sendLimiter ratelimit.KeyLimiter,
	opts Options,
	logger *zap.Logger,
) *Handler {
	if opts.VerifiedOTPWindow <= 0 {
		opts.VerifiedOTPWindow = DefaultVerifiedOTPWindow
	}
	return &Handler{
		Users:       userstore.New(db),
		OTP:         otp,
		Families:    families,
		Tokens:      tokens,
		ErrLog:      errLog,
		AuditLog:    audit,
		Metrics:     m,
		SendLimiter: sendLimiter,
		Opts:        opts,
		Log:         logger,
	}
}
