package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/drshaadi/internal/app/store/audit"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/dalemusser/drshaadi/internal/app/system/sms"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for OTP, registration and login events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Family controls logging for family membership and join-request events.
	Family string
	// Profile controls logging for profile updates and deletions.
	Profile string
}

// ValidSetting reports whether s is one of the accepted Config values.
func ValidSetting(s string) bool {
	switch s {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
// Mobile numbers are masked; the database copy keeps them whole.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.MobileNumber != "" {
		fields = append(fields, zap.String("mobile", sms.Mask(event.MobileNumber)))
	}
	if event.FamilyID != "" {
		fields = append(fields, zap.String("family_id", event.FamilyID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryFamily:
		setting = l.config.Family
	case audit.CategoryProfile:
		setting = l.config.Profile
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType, mobile string, success bool, reason string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		MobileNumber:  mobile,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
	}
}

// --- Authentication Events ---

// OTPSent logs a code being issued for mobile.
func (l *Logger) OTPSent(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventOTPSent, mobile, true, ""))
}

// OTPSendRateLimited logs a send refused by the rate limiter.
func (l *Logger) OTPSendRateLimited(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventOTPSendFailedRateLimit, mobile, false, "rate limit exceeded"))
}

// OTPVerified logs a successful verification.
func (l *Logger) OTPVerified(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventOTPVerified, mobile, true, ""))
}

// OTPVerifyFailed logs a rejected code. reason is one of the otp outcome names.
func (l *Logger) OTPVerifyFailed(ctx context.Context, r *http.Request, mobile, reason string) {
	l.Log(ctx, authEvent(r, audit.EventOTPVerifyFailed, mobile, false, reason))
}

// RegisterSuccess logs a new account.
func (l *Logger) RegisterSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, mobile, familyCode string) {
	e := authEvent(r, audit.EventRegisterSuccess, mobile, true, "")
	e.UserID = &userID
	e.FamilyID = familyCode
	l.Log(ctx, e)
}

// RegisterFailedDuplicate logs a registration for a number that already has an account.
func (l *Logger) RegisterFailedDuplicate(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventRegisterFailedDuplicate, mobile, false, "mobile already registered"))
}

// RegisterFailedUnverified logs a registration without a recent OTP verification.
func (l *Logger) RegisterFailedUnverified(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventRegisterFailedUnverified, mobile, false, "mobile not verified"))
}

// LoginSuccess logs a token being issued to an existing user.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, mobile string) {
	e := authEvent(r, audit.EventLoginSuccess, mobile, true, "")
	e.UserID = &userID
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an unknown number.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUserNotFound, mobile, false, "user not found"))
}

// LoginFailedUnverified logs a login without a recent OTP verification.
func (l *Logger) LoginFailedUnverified(ctx context.Context, r *http.Request, mobile string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUnverified, mobile, false, "mobile not verified"))
}

// --- Family Events ---

func familyEvent(r *http.Request, eventType string, userID primitive.ObjectID, code string) audit.Event {
	return audit.Event{
		Category:  audit.CategoryFamily,
		EventType: eventType,
		UserID:    &userID,
		FamilyID:  code,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// FamilyCreated logs a new family.
func (l *Logger) FamilyCreated(ctx context.Context, r *http.Request, userID primitive.ObjectID, code string) {
	l.Log(ctx, familyEvent(r, audit.EventFamilyCreated, userID, code))
}

// FamilyJoined logs a user joining a family directly by code.
func (l *Logger) FamilyJoined(ctx context.Context, r *http.Request, userID primitive.ObjectID, code string) {
	l.Log(ctx, familyEvent(r, audit.EventFamilyJoined, userID, code))
}

// FamilyLeft logs a user leaving a family.
func (l *Logger) FamilyLeft(ctx context.Context, r *http.Request, userID primitive.ObjectID, code string) {
	l.Log(ctx, familyEvent(r, audit.EventFamilyLeft, userID, code))
}

// JoinRequestCreated logs a request to join a family.
func (l *Logger) JoinRequestCreated(ctx context.Context, r *http.Request, requesterID primitive.ObjectID, code string, requestID primitive.ObjectID) {
	e := familyEvent(r, audit.EventJoinRequestCreated, requesterID, code)
	e.Details = map[string]string{"request_id": requestID.Hex()}
	l.Log(ctx, e)
}

// JoinRequestProcessed logs a member approving or rejecting a request.
func (l *Logger) JoinRequestProcessed(ctx context.Context, r *http.Request, actorID, requesterID primitive.ObjectID, code string, requestID primitive.ObjectID, approved bool) {
	eventType := audit.EventJoinRequestRejected
	if approved {
		eventType = audit.EventJoinRequestApproved
	}
	e := familyEvent(r, eventType, requesterID, code)
	e.ActorID = &actorID
	e.Details = map[string]string{"request_id": requestID.Hex()}
	l.Log(ctx, e)
}

// --- Profile Events ---

// ProfileUpdated logs a profile write along with its new completion.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, completion int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryProfile,
		EventType: audit.EventProfileUpdated,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"completion_percentage": strconv.Itoa(completion),
		},
	})
}

// ProfileDeleted logs a profile removal.
func (l *Logger) ProfileDeleted(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryProfile,
		EventType: audit.EventProfileDeleted,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}
