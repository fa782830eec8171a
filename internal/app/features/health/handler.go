package health

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Debug  bool
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
// With debug on, a failed ping reports the driver error.
func NewHandler(client *mongo.Client, debug bool, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Debug:  debug,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp := healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
		}
		if h.Debug {
			resp.Error = err.Error()
		}
		uierrors.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	uierrors.JSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}
