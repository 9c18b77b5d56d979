package handler

import (
	"log/slog"
	"net/http"

	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/service"
)

// DashboardHandler serves the signed-in user's overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// HandleGet returns the user's profile, listings, and swap requests.
//
// GET /api/dashboard
func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no token provided"})
		return
	}

	dash, err := h.dashboard.Get(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
