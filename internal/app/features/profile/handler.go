// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	profileservice "github.com/dalemusser/drshaadi/internal/app/services/profile"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// MsgProfileDeleted is returned after DELETE /profile/.
const MsgProfileDeleted = "Profile deleted successfully"

// Handler owns all user profile handlers.
type Handler struct {
	Profiles *profileservice.Service
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a Handler around the profile service.
func NewHandler(profiles *profileservice.Service, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}
