package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

// RedeemCost is the fixed point price of any item.
const RedeemCost = 100

// ExchangeService handles the two ways an item changes hands: swap
// requests between users and point redemptions.
type ExchangeService struct {
	items     repository.ItemRepository
	swaps     repository.SwapRepository
	exchanger repository.Exchanger
	assistant assistant.Client
	logger    *slog.Logger
}

func NewExchangeService(
	items repository.ItemRepository,
	swaps repository.SwapRepository,
	exchanger repository.Exchanger,
	ai assistant.Client,
	logger *slog.Logger,
) *ExchangeService {
	return &ExchangeService{
		items:     items,
		swaps:     swaps,
		exchanger: exchanger,
		assistant: ai,
		logger:    logger,
	}
}

// RequestSwap records a pending swap request for an item. The item stays
// available; only a redemption changes its state. A user cannot request
// their own item, and a second pending request for the same item is
// rejected.
func (s *ExchangeService) RequestSwap(ctx context.Context, itemID, requesterID string) (*model.Swap, error) {
	item, err := s.items.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Approved {
		return nil, apperror.Forbidden("item is awaiting approval")
	}
	if item.Availability != model.AvailabilityAvailable {
		return nil, apperror.ValidationFailed("item", "item is not available")
	}
	if item.UploaderID == requesterID {
		return nil, apperror.ValidationFailed("item", "you cannot request your own item")
	}

	swap := &model.Swap{ItemID: itemID, RequesterID: requesterID}
	if err := s.swaps.CreateSwap(ctx, swap); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("swap", "you already have a pending request for this item")
		}
		return nil, err
	}

	s.logger.Info("swap requested",
		slog.String("swapID", swap.ID),
		slog.String("itemID", itemID),
		slog.String("requesterID", requesterID),
	)

	go s.assistant.Notify(context.Background(), assistant.Notification{
		Type:       "swap_requested",
		Title:      "New swap request",
		Message:    "Someone requested a swap for " + item.Title,
		Recipients: []string{item.UploaderID},
		Channels:   []string{"in_app"},
	})

	return swap, nil
}

// Redeem spends RedeemCost points to claim an item. The debit and the
// availability change are one transaction in the storage layer; a failure
// of either leaves both untouched. Unlike swap requests, redeeming your
// own item is allowed.
func (s *ExchangeService) Redeem(ctx context.Context, itemID, requesterID string) error {
	item, err := s.items.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}

	if err := s.exchanger.RedeemItem(ctx, itemID, requesterID, RedeemCost); err != nil {
		return err
	}

	s.logger.Info("item redeemed",
		slog.String("itemID", itemID),
		slog.String("requesterID", requesterID),
		slog.Int("cost", RedeemCost),
	)

	go s.assistant.Notify(context.Background(), assistant.Notification{
		Type:       "item_redeemed",
		Title:      "Your item was redeemed",
		Message:    item.Title + " was redeemed with points",
		Recipients: []string{item.UploaderID},
		Channels:   []string{"in_app"},
	})
	go s.assistant.Reindex(context.Background(), "item", itemID)

	return nil
}

// ListSwapsByRequester returns a user's swap requests with item context
// joined, newest first.
func (s *ExchangeService) ListSwapsByRequester(ctx context.Context, requesterID string) ([]model.Swap, error) {
	return s.swaps.ListByRequester(ctx, requesterID)
}
