package service

import (
	"context"
	"log/slog"

	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

// ModerationService implements the admin review queue: approve listings
// into the public catalog or reject them, removing their stored photos.
type ModerationService struct {
	items     repository.ItemRepository
	swaps     repository.SwapRepository
	store     ImageStore
	assistant assistant.Client
	logger    *slog.Logger
}

func NewModerationService(
	items repository.ItemRepository,
	swaps repository.SwapRepository,
	store ImageStore,
	ai assistant.Client,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		items:     items,
		swaps:     swaps,
		store:     store,
		assistant: ai,
		logger:    logger,
	}
}

// ListPending returns all items awaiting review, oldest first, with
// uploader profiles attached.
func (s *ModerationService) ListPending(ctx context.Context) ([]model.Item, error) {
	return s.items.ListPending(ctx)
}

// Approve publishes a listing. Approving twice is a no-op success.
func (s *ModerationService) Approve(ctx context.Context, itemID string) error {
	if err := s.items.Approve(ctx, itemID); err != nil {
		return err
	}

	s.logger.Info("item approved", slog.String("itemID", itemID))
	go s.assistant.Reindex(context.Background(), "item", itemID)
	return nil
}

// Reject removes a listing entirely: its stored photos, its swap
// requests, and finally the row. Photo deletion is best-effort — a file
// already gone must not keep the listing alive.
func (s *ModerationService) Reject(ctx context.Context, itemID string) error {
	item, err := s.items.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveAll(item.ImagePaths); err != nil {
		s.logger.Warn("failed to remove some item images",
			slog.String("itemID", itemID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.swaps.DeleteSwapsByItem(ctx, itemID); err != nil {
		return err
	}
	if err := s.items.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	s.logger.Info("item rejected", slog.String("itemID", itemID))
	go s.assistant.Reindex(context.Background(), "item", itemID)
	return nil
}
