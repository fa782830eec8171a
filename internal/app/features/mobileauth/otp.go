// internal/app/features/mobileauth/otp.go
package mobileauth

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	otpservice "github.com/dalemusser/drshaadi/internal/app/services/otp"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/inputval"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/sms"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type sendOTPRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,max=32,mobile"`
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,max=32,mobile"`
	OTP          string `json:"otp" validate:"required,max=10"`
}

type verifyOTPResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/send-otp                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := inputval.DecodeJSON(r, limits.MaxAuthBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	mobile := normalize.MobileNumber(req.MobileNumber)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.allowSend(ctx, mobile) {
		h.AuditLog.OTPSendRateLimited(ctx, r, mobile)
		h.Metrics.OTPSent("rate_limited")
		w.Header().Set("Retry-After", "60")
		h.ErrLog.Write(w, r, apperr.RateLimited(MsgTooManyRequests))
		return
	}

	res, err := h.OTP.Send(ctx, mobile)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.OTPSent(ctx, r, mobile)
	h.Metrics.OTPSent("sent")
	uierrors.JSON(w, http.StatusOK, res)
}

// allowSend consults the per-number limiter. A limiter backend failure
// lets the request through; the IP limiter still applies.
func (h *Handler) allowSend(ctx context.Context, mobile string) bool {
	if h.SendLimiter == nil {
		return true
	}
	ok, err := h.SendLimiter.Allow(ctx, "otp:"+mobile)
	if err != nil {
		h.Log.Warn("otp send limiter unavailable",
			zap.String("mobile", sms.Mask(mobile)),
			zap.Error(err))
		return true
	}
	return ok
}

// resetSend clears the number's send count once it has proved ownership.
func (h *Handler) resetSend(ctx context.Context, mobile string) {
	if h.SendLimiter == nil {
		return
	}
	if err := h.SendLimiter.Reset(ctx, "otp:"+mobile); err != nil {
		h.Log.Warn("otp send limiter reset failed",
			zap.String("mobile", sms.Mask(mobile)),
			zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/verify-otp                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := inputval.DecodeJSON(r, limits.MaxAuthBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	mobile := normalize.MobileNumber(req.MobileNumber)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	outcome, err := h.OTP.Check(ctx, mobile, req.OTP)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Metrics.OTPVerified(string(outcome))

	if outcome != otpservice.OutcomeVerified {
		h.AuditLog.OTPVerifyFailed(ctx, r, mobile, string(outcome))
		h.ErrLog.Write(w, r, apperr.Invalid(MsgInvalidOTP))
		return
	}

	h.resetSend(ctx, mobile)
	h.AuditLog.OTPVerified(ctx, r, mobile)
	uierrors.JSON(w, http.StatusOK, verifyOTPResponse{Verified: true, Message: MsgOTPVerified})
}
