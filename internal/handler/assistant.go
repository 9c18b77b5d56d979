package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/auth"
)

// AssistantHandler proxies the companion AI service. Degradation happens
// in the client — these routes always answer 200.
type AssistantHandler struct {
	assistant assistant.Client
	logger    *slog.Logger
}

func NewAssistantHandler(client assistant.Client, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: client, logger: logger}
}

// HandleChat forwards one chat message for the signed-in user.
//
// POST /api/assistant/chat {"message","sessionId"}
func (h *AssistantHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no token provided"})
		return
	}

	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "message is required"})
		return
	}

	reply := h.assistant.Chat(r.Context(), req.Message, identity.UserID, req.SessionID)
	writeJSON(w, http.StatusOK, reply)
}

// HandleSearch runs a semantic item search.
//
// GET /api/assistant/search?query=...&top_k=5
func (h *AssistantHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "query is required"})
		return
	}

	topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))
	if topK < 1 {
		topK = 5
	}

	writeJSON(w, http.StatusOK, h.assistant.Search(r.Context(), query, topK))
}

// HandleHealth reports whether the assistant answered its last probe.
//
// GET /api/assistant/health
func (h *AssistantHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": h.assistant.Available()})
}
