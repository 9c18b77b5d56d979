package handler

import (
	"log/slog"
	"net/http"

	"github.com/Losthero1640/rewear/internal/service"
)

// AdminHandler exposes the moderation queue. Every route is behind the
// admin middleware, so these handlers don't re-check the identity.
type AdminHandler struct {
	moderation *service.ModerationService
	logger     *slog.Logger
}

func NewAdminHandler(moderation *service.ModerationService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{moderation: moderation, logger: logger}
}

// HandleListPending returns every item awaiting review, oldest first.
//
// GET /api/admin/pending
func (h *AdminHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.moderation.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleApprove publishes a pending listing.
//
// POST /api/admin/{id}/approve
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	if err := h.moderation.Approve(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item approved"})
}

// HandleReject removes a listing and its stored photos. Mounted on both
// the reject and remove routes: rejecting a pending listing and removing
// a published one are the same operation.
//
// DELETE /api/admin/{id}/reject
// DELETE /api/admin/{id}/remove
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	if err := h.moderation.Reject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}
