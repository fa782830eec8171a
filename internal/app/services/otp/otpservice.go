// Package otpservice issues and checks the one-time codes that prove a
// caller controls a mobile number.
package otpservice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	otpstore "github.com/dalemusser/drshaadi/internal/app/store/otps"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/sms"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultExpiry      = 5 * time.Minute
	DefaultLength      = 4
	DefaultMaxAttempts = 3

	// SentMessage is returned to the caller after a successful send.
	SentMessage = "OTP sent successfully"
)

// Config controls code generation and checking. Zero values take the defaults.
type Config struct {
	Expiry      time.Duration
	Length      int
	MaxAttempts int
	// FixedCode, when set, is issued instead of a random code. For demo
	// deployments only; config validation refuses it in production.
	FixedCode  string
	BcryptCost int
}

func (c Config) withDefaults() Config {
	if c.Expiry <= 0 {
		c.Expiry = DefaultExpiry
	}
	if c.Length <= 0 {
		c.Length = DefaultLength
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

// Outcome describes why a verification passed or failed.
type Outcome string

const (
	OutcomeVerified        Outcome = "verified"
	OutcomeNoRecord        Outcome = "no_record"
	OutcomeExpired         Outcome = "expired"
	OutcomeTooManyAttempts Outcome = "too_many_attempts"
	OutcomeMismatch        Outcome = "mismatch"
	// OutcomeAlreadyUsed means a concurrent verify consumed the code first.
	OutcomeAlreadyUsed Outcome = "already_used"
)

// SendResult is what the caller learns about an issued code.
type SendResult struct {
	MobileNumber string    `json:"mobile_number"`
	ExpiresAt    time.Time `json:"expires_at"`
	Message      string    `json:"message"`
}

type Service struct {
	store  *otpstore.Store
	sender sms.Sender
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

func New(db *mongo.Database, sender sms.Sender, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:  otpstore.New(db),
		sender: sender,
		cfg:    cfg.withDefaults(),
		log:    logger,
		now:    time.Now,
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Send issues a fresh code for mobile, replacing any pending one, and hands
// it to the SMS sender. A sender failure is logged; the code is still valid
// and the call still succeeds.
func (s *Service) Send(ctx context.Context, mobile string) (SendResult, error) {
	mobile = normalize.MobileNumber(mobile)

	code, err := s.newCode()
	if err != nil {
		return SendResult{}, apperr.Internal("generate code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return SendResult{}, apperr.Internal("hash code", err)
	}

	expiresAt := s.now().UTC().Add(s.cfg.Expiry)
	otp, err := s.store.Upsert(ctx, mobile, string(hash), expiresAt)
	if err != nil {
		return SendResult{}, apperr.FromStore(err, "otp not found")
	}

	if s.sender != nil {
		if err := s.sender.Send(ctx, mobile, sms.OTPMessage(code, s.cfg.Expiry)); err != nil {
			s.log.Warn("otp delivery failed",
				zap.String("mobile", sms.Mask(mobile)),
				zap.Error(err))
		}
	}

	return SendResult{
		MobileNumber: otp.MobileNumber,
		ExpiresAt:    otp.ExpiresAt,
		Message:      SentMessage,
	}, nil
}

// Check verifies code against the pending record for mobile and reports the
// outcome. A mismatched code counts against the record's attempts. The error
// is reserved for store failures.
func (s *Service) Check(ctx context.Context, mobile, code string) (Outcome, error) {
	otp, err := s.store.FindPending(ctx, mobile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return OutcomeNoRecord, nil
		}
		return "", apperr.FromStore(err, "otp not found")
	}

	if otp.Expired(s.now()) {
		return OutcomeExpired, nil
	}
	if otp.Attempts >= s.cfg.MaxAttempts {
		return OutcomeTooManyAttempts, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		if err := s.store.IncrementAttempts(ctx, otp.ID); err != nil {
			return "", apperr.FromStore(err, "otp not found")
		}
		return OutcomeMismatch, nil
	}

	ok, err := s.store.MarkVerified(ctx, otp.ID)
	if err != nil {
		return "", apperr.FromStore(err, "otp not found")
	}
	if !ok {
		return OutcomeAlreadyUsed, nil
	}
	return OutcomeVerified, nil
}

// Verify reports whether code is the current, unexpired code for mobile.
func (s *Service) Verify(ctx context.Context, mobile, code string) (bool, error) {
	outcome, err := s.Check(ctx, mobile, code)
	return outcome == OutcomeVerified, err
}

// RecentlyVerified reports whether mobile completed verification within window.
func (s *Service) RecentlyVerified(ctx context.Context, mobile string, window time.Duration) (bool, error) {
	ok, err := s.store.VerifiedSince(ctx, mobile, s.now().Add(-window))
	if err != nil {
		return false, apperr.FromStore(err, "otp not found")
	}
	return ok, nil
}

func (s *Service) newCode() (string, error) {
	if s.cfg.FixedCode != "" {
		return s.cfg.FixedCode, nil
	}
	return RandomDigits(s.cfg.Length)
}

// RandomDigits returns n uniformly random decimal digits from crypto/rand.
func RandomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
