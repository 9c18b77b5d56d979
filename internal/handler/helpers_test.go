package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/handler"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository/sqlite"
	"github.com/Losthero1640/rewear/internal/service"
	"github.com/Losthero1640/rewear/internal/upload"
)

// stubAssistant satisfies assistant.Client without a network. It records
// chat calls so tests can assert the handler forwarded the right fields.
type stubAssistant struct {
	lastChatMessage string
	lastChatUser    string
}

func (s *stubAssistant) Available() bool { return true }

func (s *stubAssistant) Chat(_ context.Context, message, userID, _ string) *assistant.ChatReply {
	s.lastChatMessage = message
	s.lastChatUser = userID
	return &assistant.ChatReply{Response: "stub reply"}
}

func (s *stubAssistant) Search(_ context.Context, query string, _ int) *assistant.SearchResult {
	return &assistant.SearchResult{Query: query}
}

func (s *stubAssistant) Notify(context.Context, assistant.Notification) {}

func (s *stubAssistant) Reindex(context.Context, string, string) {}

// testAPI wires real services over an in-memory database and a throwaway
// upload directory, mounted the same way the server mounts them. Requests
// go through the real auth middleware, so tests exercise the full path
// from Authorization header to response body.
type testAPI struct {
	router    http.Handler
	db        *sqlite.DB
	tokens    *auth.TokenService
	store     *upload.Store
	assistant *stubAssistant
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := upload.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}

	tokens, err := auth.NewTokenService("test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ai := &stubAssistant{}

	authService := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), logger)
	catalogService := service.NewCatalogService(db, store, ai, logger)
	exchangeService := service.NewExchangeService(db, db, db, ai, logger)
	moderationService := service.NewModerationService(db, db, store, ai, logger)
	dashboardService := service.NewDashboardService(db, db, db)

	authHandler := handler.NewAuthHandler(authService, nil, logger)
	itemHandler := handler.NewItemHandler(catalogService, exchangeService, logger)
	adminHandler := handler.NewAdminHandler(moderationService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	assistantHandler := handler.NewAssistantHandler(ai, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Get("/items/featured", itemHandler.HandleListFeatured)
		r.Get("/items", itemHandler.HandleList)
		r.With(auth.OptionalAuth(tokens)).Get("/items/{id}", itemHandler.HandleGet)

		r.Get("/assistant/search", assistantHandler.HandleSearch)
		r.Get("/assistant/health", assistantHandler.HandleHealth)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user/profile", authHandler.HandleGetProfile)
			r.Put("/user/profile", authHandler.HandleUpdateProfile)

			r.Post("/items", itemHandler.HandleCreate)
			r.Post("/items/{id}/swap-request", itemHandler.HandleSwapRequest)
			r.Post("/items/{id}/redeem", itemHandler.HandleRedeem)

			r.Get("/dashboard", dashboardHandler.HandleGet)

			r.Post("/assistant/chat", assistantHandler.HandleChat)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/admin/pending", adminHandler.HandleListPending)
				r.Post("/admin/{id}/approve", adminHandler.HandleApprove)
				r.Delete("/admin/{id}/reject", adminHandler.HandleReject)
				r.Delete("/admin/{id}/remove", adminHandler.HandleReject)
			})
		})
	})

	return &testAPI{
		router:    r,
		db:        db,
		tokens:    tokens,
		store:     store,
		assistant: ai,
	}
}

// createUser inserts a user directly and returns it with a signed token.
// Going through the database keeps the point balance and admin flag under
// test control, which the signup endpoint deliberately doesn't offer.
func (api *testAPI) createUser(t *testing.T, email string, points int, isAdmin bool) (*model.User, string) {
	t.Helper()

	user := &model.User{
		Email:   email,
		IsAdmin: isAdmin,
		Points:  points,
	}
	if err := api.db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}

	token, err := api.tokens.Generate(auth.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, token
}

// do runs one request through the router. A non-empty token becomes the
// Bearer credential.
func (api *testAPI) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

func (api *testAPI) doJSON(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return api.do(t, method, target, token, bytes.NewBufferString(body), "application/json")
}

// listingForm builds a multipart body for POST /api/items with the given
// fields and one valid JPEG per image name.
func listingForm(t *testing.T, fields map[string]string, imageCount int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	for i := 0; i < imageCount; i++ {
		part, err := w.CreateFormFile("images", "photo.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if err := jpeg.Encode(part, img, nil); err != nil {
			t.Fatalf("failed to encode test image: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

// createListing posts a minimal valid listing and returns the new item ID.
func (api *testAPI) createListing(t *testing.T, token, title string) string {
	t.Helper()

	body, contentType := listingForm(t, map[string]string{
		"title":    title,
		"category": "tops",
		"tags":     "vintage,wool",
	}, 1)

	rr := api.do(t, http.MethodPost, "/api/items", token, body, contentType)
	if rr.Code != http.StatusCreated {
		t.Fatalf("failed to create listing: status %d, body %s", rr.Code, rr.Body.String())
	}

	var res struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	return res.ItemID
}

// approveItem flips the moderation flag directly.
func (api *testAPI) approveItem(t *testing.T, itemID string) {
	t.Helper()
	if err := api.db.Approve(context.Background(), itemID); err != nil {
		t.Fatalf("failed to approve item %s: %v", itemID, err)
	}
}
