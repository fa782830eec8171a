// internal/app/features/family/requests.go
package family

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	familyservice "github.com/dalemusser/drshaadi/internal/app/services/family"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/inputval"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type processRequest struct {
	Action string `json:"action" validate:"required,max=16"`
}

type processResponse struct {
	Message string                    `json:"message"`
	Request *models.FamilyJoinRequest `json:"request"`
}

// POST /family/{id}/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	code := normalize.FamilyCode(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	req, err := h.Families.CreateJoinRequest(ctx, code, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.JoinRequestCreated(ctx, r, uid, req.FamilyID, req.ID)
	h.Metrics.FamilyEvent("request_created")
	uierrors.JSON(w, http.StatusCreated, req)
}

// GET /family/{id}/requests
//
// Only members may list a family's requests. An unknown family answers the
// same 403 so codes cannot be probed through this route.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	code := normalize.FamilyCode(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Families.RequireMember(ctx, code, uid, familyservice.MsgNotAMember); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.Forbidden(familyservice.MsgNotAMember)
		}
		h.ErrLog.Write(w, r, err)
		return
	}

	reqs, err := h.Families.ListPendingJoinRequests(ctx, code)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, reqs)
}

// POST /family/requests/{id}/process
func (h *Handler) ProcessRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad join request id", err, MsgBadRequestID)
		return
	}

	var body processRequest
	if err := inputval.DecodeJSON(r, limits.MaxFamilyBodySize, &body); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "process join request")
	defer cancel()

	req, err := h.Families.ProcessJoinRequest(ctx, requestID, body.Action, uid)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	approved := req.Status == models.JoinStatusApproved
	h.AuditLog.JoinRequestProcessed(ctx, r, uid, req.RequesterID, req.FamilyID, req.ID, approved)
	h.Metrics.FamilyEvent("request_" + string(req.Status))

	uierrors.JSON(w, http.StatusOK, processResponse{
		Message: fmt.Sprintf(msgRequestProcessed, req.Status),
		Request: req,
	})
}
