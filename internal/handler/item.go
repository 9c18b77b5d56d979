package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/service"
)

// maxListingForm bounds the in-memory portion of a multipart listing
// upload; larger file parts spill to temp files.
const maxListingForm = 48 << 20

// ItemHandler exposes listing creation, browsing, and the two exchange
// paths.
type ItemHandler struct {
	catalog  *service.CatalogService
	exchange *service.ExchangeService
	logger   *slog.Logger
}

func NewItemHandler(catalog *service.CatalogService, exchange *service.ExchangeService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		catalog:  catalog,
		exchange: exchange,
		logger:   logger,
	}
}

// HandleCreate accepts a multipart listing: text fields plus 1–5 files
// under "images".
//
// POST /api/items
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no token provided"})
		return
	}

	if err := r.ParseMultipartForm(maxListingForm); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	var images []io.Reader
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "unreadable image upload"})
			return
		}
		defer file.Close()
		images = append(images, file)
	}

	item, err := h.catalog.CreateItem(r.Context(), identity.UserID, service.CreateItemInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Type:        r.FormValue("type"),
		Size:        r.FormValue("size"),
		Condition:   r.FormValue("condition"),
		Tags:        splitTags(r.MultipartForm.Value["tags"]),
		Images:      images,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"itemId": item.ID})
}

// HandleListFeatured returns the newest browsable items.
//
// GET /api/items/featured
func (h *ItemHandler) HandleListFeatured(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListFeatured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleList returns one page of browsable items.
//
// GET /api/items?category=&tags=a,b&page=1&limit=20
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.catalog.ListItems(r.Context(), q.Get("category"), splitTags(q["tags"]), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGet returns one item. Pending items are visible to their uploader
// and to admins only, so the route runs with optional auth.
//
// GET /api/items/{id}
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	var viewer *auth.Identity
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		viewer = identity
	}

	item, err := h.catalog.GetItem(r.Context(), r.PathValue("id"), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleSwapRequest records a pending swap request for the item.
//
// POST /api/items/{id}/swap-request
func (h *ItemHandler) HandleSwapRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no token provided"})
		return
	}

	swap, err := h.exchange.RequestSwap(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swap)
}

// HandleRedeem spends points to claim the item.
//
// POST /api/items/{id}/redeem
func (h *ItemHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no token provided"})
		return
	}

	if err := h.exchange.Redeem(r.Context(), r.PathValue("id"), identity.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item redeemed"})
}

// splitTags flattens repeated and comma-separated tag values:
// ?tags=a,b&tags=c becomes [a b c].
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}
