package service

import (
	"context"

	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

// DashboardService assembles the signed-in user's overview: profile,
// their listings in every state, and their outgoing swap requests.
type DashboardService struct {
	users repository.UserRepository
	items repository.ItemRepository
	swaps repository.SwapRepository
}

func NewDashboardService(
	users repository.UserRepository,
	items repository.ItemRepository,
	swaps repository.SwapRepository,
) *DashboardService {
	return &DashboardService{
		users: users,
		items: items,
		swaps: swaps,
	}
}

// Dashboard is the response payload. The user's password hash never
// serializes (json:"-" on the model).
type Dashboard struct {
	User           *model.User  `json:"user"`
	UploadedItems  []model.Item `json:"uploadedItems"`
	SwapsRequested []model.Swap `json:"swapsRequested"`
}

// Get returns the dashboard for one user, or apperror.ErrNotFound if the
// account no longer exists.
func (s *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.items.ListByUploader(ctx, userID)
	if err != nil {
		return nil, err
	}

	swaps, err := s.swaps.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User:           user,
		UploadedItems:  items,
		SwapsRequested: swaps,
	}, nil
}
