package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/auth"
	"github.com/Losthero1640/rewear/internal/model"
)

func newCatalogService(t *testing.T) (*CatalogService, *fakeItemRepo, *fakeImageStore) {
	t.Helper()
	items := newFakeItemRepo()
	store := newFakeImageStore()
	svc := NewCatalogService(items, store, &fakeAssistant{}, discardLogger())
	return svc, items, store
}

// testImage encodes a tiny valid JPEG.
func testImage(t *testing.T) io.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{G: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return &buf
}

func testImages(t *testing.T, n int) []io.Reader {
	t.Helper()
	out := make([]io.Reader, n)
	for i := range out {
		out[i] = testImage(t)
	}
	return out
}

func TestCreateItem(t *testing.T) {
	svc, _, store := newCatalogService(t)

	item, err := svc.CreateItem(context.Background(), "user-1", CreateItemInput{
		Title:  "  Denim Jacket  ",
		Tags:   []string{"Vintage", "vintage", " wool ", ""},
		Images: testImages(t, 2),
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	if item.Title != "Denim Jacket" {
		t.Errorf("Title = %q, want trimmed", item.Title)
	}
	if item.Approved {
		t.Error("new listing must start unapproved")
	}
	if len(item.ImagePaths) != 2 {
		t.Errorf("got %d image paths, want 2", len(item.ImagePaths))
	}
	if store.count() != 2 {
		t.Errorf("store holds %d files, want 2", store.count())
	}
	// Tags deduplicated, lowercased, trimmed, empties dropped.
	if len(item.Tags) != 2 || item.Tags[0] != "vintage" || item.Tags[1] != "wool" {
		t.Errorf("Tags = %v, want [vintage wool]", item.Tags)
	}
}

func TestCreateItem_TitleRequired(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	_, err := svc.CreateItem(context.Background(), "user-1", CreateItemInput{
		Title:  "   ",
		Images: testImages(t, 1),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreateItem_ImageCountBounds(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	_, err := svc.CreateItem(context.Background(), "user-1", CreateItemInput{Title: "No photos"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("zero images: error = %v, want ErrValidation", err)
	}

	_, err = svc.CreateItem(context.Background(), "user-1", CreateItemInput{
		Title:  "Too many",
		Images: testImages(t, 6),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("six images: error = %v, want ErrValidation", err)
	}
}

func TestCreateItem_BadImageCleansUp(t *testing.T) {
	svc, _, store := newCatalogService(t)

	_, err := svc.CreateItem(context.Background(), "user-1", CreateItemInput{
		Title:  "Broken upload",
		Images: []io.Reader{testImage(t), bytes.NewReader([]byte("not an image"))},
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if store.count() != 0 {
		t.Errorf("store holds %d files after a failed listing, want 0", store.count())
	}
}

func TestListItems_Pagination(t *testing.T) {
	svc, items, _ := newCatalogService(t)

	for i := 0; i < 25; i++ {
		item := &model.Item{Title: "Item", UploaderID: "user-1"}
		items.CreateItem(context.Background(), item)
		items.Approve(context.Background(), item.ID)
	}

	page, err := svc.ListItems(context.Background(), "", nil, 2, 10)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if page.Total != 25 {
		t.Errorf("Total = %d, want 25", page.Total)
	}
	if page.Pages != 3 {
		t.Errorf("Pages = %d, want 3", page.Pages)
	}
	if len(page.Items) != 10 {
		t.Errorf("got %d items on page 2, want 10", len(page.Items))
	}
	if page.Page != 2 {
		t.Errorf("Page = %d, want 2", page.Page)
	}
}

func TestListItems_ClampsBadParams(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	page, err := svc.ListItems(context.Background(), "", nil, -3, 0)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if page.Page != 1 {
		t.Errorf("Page = %d, want clamped to 1", page.Page)
	}

	page, err = svc.ListItems(context.Background(), "", nil, 1, 9999)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if page.Pages != 0 || page.Total != 0 {
		t.Errorf("empty catalog: Total = %d Pages = %d, want 0/0", page.Total, page.Pages)
	}
}

func TestGetItem_PendingVisibility(t *testing.T) {
	svc, items, _ := newCatalogService(t)

	item := &model.Item{Title: "Pending", UploaderID: "owner-1"}
	items.CreateItem(context.Background(), item)

	tests := []struct {
		name    string
		viewer  *auth.Identity
		wantErr error
	}{
		{"anonymous", nil, apperror.ErrForbidden},
		{"stranger", &auth.Identity{UserID: "user-2"}, apperror.ErrForbidden},
		{"uploader", &auth.Identity{UserID: "owner-1"}, nil},
		{"admin", &auth.Identity{UserID: "admin-1", IsAdmin: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetItem(context.Background(), item.ID, tt.viewer)
			if tt.wantErr == nil && err != nil {
				t.Errorf("error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetItem_NotFound(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	_, err := svc.GetItem(context.Background(), "ghost", nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListFeatured(t *testing.T) {
	svc, items, _ := newCatalogService(t)

	for i := 0; i < 12; i++ {
		item := &model.Item{Title: "Item", UploaderID: "user-1"}
		items.CreateItem(context.Background(), item)
		items.Approve(context.Background(), item.ID)
	}

	featured, err := svc.ListFeatured(context.Background())
	if err != nil {
		t.Fatalf("ListFeatured() error = %v", err)
	}
	if len(featured) != FeaturedLimit {
		t.Errorf("got %d featured items, want %d", len(featured), FeaturedLimit)
	}
}
