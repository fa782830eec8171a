// internal/app/features/mobileauth/account.go
package mobileauth

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/htmlsanitize"
	"github.com/dalemusser/drshaadi/internal/app/system/inputval"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type registerRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	MobileNumber string `json:"mobile_number" validate:"required,max=32,mobile"`
	Email        string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	ProfileType  string `json:"profile_type,omitempty" validate:"omitempty,oneof=myself family_member"`
	FamilyID     string `json:"family_id,omitempty" validate:"omitempty,max=16,familycode"`
}

type loginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,max=32,mobile"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/register                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := inputval.DecodeJSON(r, limits.MaxAuthBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	mobile := normalize.MobileNumber(req.MobileNumber)
	name := normalize.Name(htmlsanitize.PlainText(req.Name))
	if name == "" {
		h.ErrLog.Write(w, r, apperr.Invalid("name is required."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register")
	defer cancel()

	if ok := h.checkVerified(ctx, w, r, mobile, "register"); !ok {
		return
	}

	/*── refuse numbers that already have an active account ────────────────*/

	_, err := h.Users.GetActiveByMobile(ctx, mobile)
	switch {
	case err == nil:
		h.registerDuplicate(ctx, w, r, mobile)
		return
	case !errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.Write(w, r, apperr.FromStore(err, MsgUserNotFound))
		return
	}

	/*── resolve the family before creating anything ───────────────────────*/

	code := normalize.FamilyCode(req.FamilyID)
	if code != "" {
		if _, err := h.Families.GetFamily(ctx, code); err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
	}

	u := models.User{
		Name:             name,
		MobileNumber:     mobile,
		IsMobileVerified: true,
		ProfileType:      models.ProfileType(normalize.ProfileType(req.ProfileType)),
	}
	if req.Email != "" {
		u.Email = &req.Email
	}

	// Account and membership are written together. A failed join leaves no
	// active account.
	created, err := h.Families.RegisterMember(ctx, u, code)
	if errors.Is(err, userstore.ErrDuplicateMobile) {
		h.registerDuplicate(ctx, w, r, mobile)
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, apperr.FromStore(err, MsgUserNotFound))
		return
	}
	if code != "" {
		h.AuditLog.FamilyJoined(ctx, r, created.ID, code)
		h.Metrics.FamilyEvent("joined")
	}

	tok, err := h.Tokens.Issue(created.ID.Hex(), created.MobileNumber)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token failed", err, "Could not issue access token")
		return
	}

	h.AuditLog.RegisterSuccess(ctx, r, created.ID, mobile, code)
	h.Metrics.AuthEvent("register", "success")
	uierrors.JSON(w, http.StatusOK, tok)
}

func (h *Handler) registerDuplicate(ctx context.Context, w http.ResponseWriter, r *http.Request, mobile string) {
	h.AuditLog.RegisterFailedDuplicate(ctx, r, mobile)
	h.Metrics.AuthEvent("register", "duplicate")
	h.ErrLog.Write(w, r, apperr.Invalid(MsgUserExists))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := inputval.DecodeJSON(r, limits.MaxAuthBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	mobile := normalize.MobileNumber(req.MobileNumber)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok := h.checkVerified(ctx, w, r, mobile, "login"); !ok {
		return
	}

	u, err := h.Users.GetActiveByMobile(ctx, mobile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, mobile)
		h.Metrics.AuthEvent("login", "not_found")
		h.ErrLog.Write(w, r, apperr.NotFound(MsgUserNotFound))
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, apperr.FromStore(err, MsgUserNotFound))
		return
	}

	tok, err := h.Tokens.Issue(u.ID.Hex(), u.MobileNumber)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token failed", err, "Could not issue access token")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID, mobile)
	h.Metrics.AuthEvent("login", "success")
	uierrors.JSON(w, http.StatusOK, tok)
}

// checkVerified enforces the recent-OTP requirement when it is on. It writes
// the response and returns false when the request must stop.
func (h *Handler) checkVerified(ctx context.Context, w http.ResponseWriter, r *http.Request, mobile, event string) bool {
	if !h.Opts.RequireVerifiedOTP {
		return true
	}
	ok, err := h.OTP.RecentlyVerified(ctx, mobile, h.Opts.VerifiedOTPWindow)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return false
	}
	if ok {
		return true
	}

	if event == "register" {
		h.AuditLog.RegisterFailedUnverified(ctx, r, mobile)
	} else {
		h.AuditLog.LoginFailedUnverified(ctx, r, mobile)
	}
	h.Metrics.AuthEvent(event, "unverified")
	h.ErrLog.Write(w, r, apperr.Invalid(MsgNotVerified))
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/me                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, apperr.FromStore(err, MsgUserNotFound))
		return
	}
	uierrors.JSON(w, http.StatusOK, u)
}
