// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/inputval"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/dalemusser/drshaadi/internal/domain/models"
)

// updateRequest is the body of the create/update routes. user_id is
// accepted for older clients and ignored; callers edit their own profile.
type updateRequest struct {
	UserID      string              `json:"user_id,omitempty"`
	ProfileData *models.ProfileData `json:"profile_data" validate:"required"`
}

// profileResponse is returned by every read and write of the profile.
// profile_data is null for a user who has not created one.
type profileResponse struct {
	UserID               string              `json:"user_id"`
	ProfileData          *models.ProfileData `json:"profile_data"`
	CompletionPercentage int                 `json:"completion_percentage"`
}

type completionResponse struct {
	UserID               string `json:"user_id"`
	CompletionPercentage int    `json:"completion_percentage"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// POST, PUT /profile/ (and the /create, /update aliases)
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var req updateRequest
	if err := inputval.DecodeJSON(r, limits.MaxProfileBodySize, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stored, err := h.Profiles.Update(ctx, uid, *req.ProfileData)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	pct := stored.CompletionPercentage()
	h.AuditLog.ProfileUpdated(ctx, r, uid, pct)
	uierrors.JSON(w, http.StatusOK, profileResponse{
		UserID:               uid.Hex(),
		ProfileData:          stored,
		CompletionPercentage: pct,
	})
}

// GET /profile/
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	uierrors.JSON(w, http.StatusOK, profileResponse{
		UserID:               uid.Hex(),
		ProfileData:          p,
		CompletionPercentage: p.CompletionPercentage(),
	})
}

// DELETE /profile/
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Profiles.Delete(ctx, uid); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.ProfileDeleted(ctx, r, uid)
	uierrors.JSON(w, http.StatusOK, messageResponse{Message: MsgProfileDeleted})
}

// GET /profile/completion
func (h *Handler) ServeCompletion(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pct, err := h.Profiles.CompletionPercentage(ctx, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	uierrors.JSON(w, http.StatusOK, completionResponse{
		UserID:               uid.Hex(),
		CompletionPercentage: pct,
	})
}
