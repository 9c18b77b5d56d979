package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/imaging"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

const (
	MinItemImages = 1
	MaxItemImages = 5

	MaxTitleLength = 120

	FeaturedLimit    = 10
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ImageStore persists processed photos. Satisfied by *upload.Store.
type ImageStore interface {
	Save(data []byte) (string, error)
	Remove(publicPath string) error
	RemoveAll(publicPaths []string) error
}

// CatalogService handles item listing, browsing, and detail lookup.
type CatalogService struct {
	items     repository.ItemRepository
	store     ImageStore
	assistant assistant.Client
	logger    *slog.Logger
}

func NewCatalogService(
	items repository.ItemRepository,
	store ImageStore,
	ai assistant.Client,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		items:     items,
		store:     store,
		assistant: ai,
		logger:    logger,
	}
}

// CreateItemInput carries everything a new listing needs. Images are the
// raw multipart file readers, validated and re-encoded here.
type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	Type        string
	Size        string
	Condition   string
	Tags        []string
	Images      []io.Reader
}

// CreateItem validates the listing, normalizes and stores its photos, and
// creates the item in the pending (unapproved) state. If anything fails
// after some photos were written, the written files are cleaned up.
func (s *CatalogService) CreateItem(ctx context.Context, uploaderID string, in CreateItemInput) (*model.Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Images) < MinItemImages {
		return nil, apperror.ValidationFailed("images", "at least one image is required")
	}
	if len(in.Images) > MaxItemImages {
		return nil, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d images are allowed", MaxItemImages))
	}

	var paths []string
	for _, img := range in.Images {
		data, err := imaging.Normalize(img)
		if err != nil {
			s.store.RemoveAll(paths)
			return nil, err
		}
		path, err := s.store.Save(data)
		if err != nil {
			s.store.RemoveAll(paths)
			return nil, fmt.Errorf("service/catalog: storing image: %w", err)
		}
		paths = append(paths, path)
	}

	item := &model.Item{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Type:        strings.TrimSpace(in.Type),
		Size:        strings.TrimSpace(in.Size),
		Condition:   strings.TrimSpace(in.Condition),
		Tags:        normalizeTags(in.Tags),
		ImagePaths:  paths,
		UploaderID:  uploaderID,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		s.store.RemoveAll(paths)
		return nil, err
	}

	s.logger.Info("item listed",
		slog.String("itemID", item.ID),
		slog.String("uploaderID", uploaderID),
		slog.Int("images", len(paths)),
	)

	go s.assistant.Reindex(context.Background(), "item", item.ID)

	return item, nil
}

// ItemPage is one page of browsable items plus pagination metadata.
type ItemPage struct {
	Items []model.Item `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}

// ListItems returns approved, available items filtered by category and
// tags. Page and limit are clamped rather than rejected.
func (s *CatalogService) ListItems(ctx context.Context, category string, tags []string, page, limit int) (*ItemPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	filter := repository.ItemFilter{
		Category: strings.TrimSpace(category),
		Tags:     normalizeTags(tags),
	}
	opts := repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	items, total, err := s.items.ListBrowsable(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	pages := (total + limit - 1) / limit
	return &ItemPage{Items: items, Total: total, Page: page, Pages: pages}, nil
}

// ListFeatured returns the newest browsable items for the landing page.
func (s *CatalogService) ListFeatured(ctx context.Context) ([]model.Item, error) {
	return s.items.ListFeatured(ctx, FeaturedLimit)
}

// GetItem returns one item. Unapproved items are visible only to their
// uploader and to admins; everyone else gets apperror.ErrForbidden.
func (s *CatalogService) GetItem(ctx context.Context, id string, viewer *auth.Identity) (*model.Item, error) {
	item, err := s.items.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !item.Approved {
		if viewer == nil || (viewer.UserID != item.UploaderID && !viewer.IsAdmin) {
			return nil, apperror.Forbidden("item is awaiting approval")
		}
	}

	return item, nil
}

// ListByUploader returns every item a user has listed, in any state. Used
// by the dashboard.
func (s *CatalogService) ListByUploader(ctx context.Context, uploaderID string) ([]model.Item, error) {
	return s.items.ListByUploader(ctx, uploaderID)
}

// normalizeTags trims, lowercases, and drops empty or duplicate tags,
// preserving order.
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
