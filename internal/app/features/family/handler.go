// internal/app/features/family/handler.go
package family

import (
	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	familyservice "github.com/dalemusser/drshaadi/internal/app/services/family"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Caller-facing messages specific to the HTTP surface.
const (
	MsgNoFamily         = "No family found"
	MsgNoFamilyToLeave  = "No family to leave"
	MsgLeftFamily       = "Successfully left family"
	MsgBadRequestID     = "Invalid request id"
	msgRequestProcessed = "Request %s successfully"
)

// Handler is the shared dependency container for the family feature:
// membership (create, join, leave, lookups) and join requests.
type Handler struct {
	Families *familyservice.Service
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func NewHandler(families *familyservice.Service, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Families: families,
		ErrLog:   errLog,
		AuditLog: audit,
		Metrics:  m,
		Log:      logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
