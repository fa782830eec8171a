// internal/app/features/family/membership.go
package family

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/inputval"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// joinRequest is the body of POST /family/join. user_id is accepted for
// older clients and ignored; the caller always joins as themselves.
type joinRequest struct {
	FamilyID string `json:"family_id" validate:"required,max=16,familycode"`
	UserID   string `json:"user_id,omitempty"`
}

// POST /family/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create family")
	defer cancel()

	f, err := h.Families.CreateFamily(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.FamilyCreated(ctx, r, uid, f.FamilyID)
	h.Metrics.FamilyEvent("created")
	uierrors.JSON(w, http.StatusOK, f)
}

// POST /family/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var req joinRequest
	if err := inputval.DecodeJSON(r, limits.MaxFamilyBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "join family")
	defer cancel()

	f, err := h.Families.JoinFamily(ctx, req.FamilyID, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.FamilyJoined(ctx, r, uid, f.FamilyID)
	h.Metrics.FamilyEvent("joined")
	uierrors.JSON(w, http.StatusOK, f)
}

// GET /family/my-family
func (h *Handler) MyFamily(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Families.GetFamilyByUser(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if f == nil {
		h.ErrLog.Write(w, r, apperr.NotFound(MsgNoFamily))
		return
	}
	uierrors.JSON(w, http.StatusOK, f)
}

// GET /family/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	code := normalize.FamilyCode(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Families.GetFamily(ctx, code)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, f)
}

// POST /family/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leave family")
	defer cancel()

	f, err := h.Families.GetFamilyByUser(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if f == nil {
		h.ErrLog.Write(w, r, apperr.NotFound(MsgNoFamilyToLeave))
		return
	}

	if err := h.Families.LeaveFamily(ctx, f.FamilyID, uid); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.FamilyLeft(ctx, r, uid, f.FamilyID)
	h.Metrics.FamilyEvent("left")
	uierrors.JSON(w, http.StatusOK, messageResponse{Message: MsgLeftFamily})
}
