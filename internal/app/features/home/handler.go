package home

import (
	"net/http"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"go.uber.org/zap"
)

// Handler serves the API landing response.
type Handler struct {
	Name    string
	Version string
	Prefix  string
	Log     *zap.Logger
}

func NewHandler(name, version, prefix string, logger *zap.Logger) *Handler {
	return &Handler{
		Name:    name,
		Version: version,
		Prefix:  prefix,
		Log:     logger,
	}
}

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	API     string `json:"api"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	uierrors.JSON(w, http.StatusOK, rootResponse{
		Message: "Welcome to " + h.Name,
		Version: h.Version,
		API:     h.Prefix,
	})
}
