package service

// Hand-written in-memory fakes for the repository and collaborator
// interfaces. Each stores copies, never the caller's pointers, so tests
// can't accidentally share state through them.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Losthero1640/rewear/internal/apperror"
	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/model"
	"github.com/Losthero1640/rewear/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- users ---

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) newID() string {
	f.nextID++
	return fmt.Sprintf("user-%d", f.nextID)
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	user.ID = f.newID()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored.FullName = user.FullName
	stored.Age = user.Age
	stored.Gender = user.Gender
	stored.IsAdmin = user.IsAdmin
	return nil
}

func (f *fakeUserRepo) UpsertByGitHubID(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GitHubID == user.GitHubID {
			u.Email = user.Email
			*user = *u
			return nil
		}
	}
	user.ID = f.newID()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

// --- items ---

type fakeItemRepo struct {
	items  map[string]*model.Item
	order  []string // insertion order, newest last
	nextID int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*model.Item)}
}

func (f *fakeItemRepo) CreateItem(_ context.Context, item *model.Item) error {
	f.nextID++
	item.ID = fmt.Sprintf("item-%d", f.nextID)
	item.Approved = false
	item.Availability = model.AvailabilityAvailable
	stored := *item
	f.items[item.ID] = &stored
	f.order = append(f.order, item.ID)
	return nil
}

func (f *fakeItemRepo) GetItemByID(_ context.Context, id string) (*model.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemRepo) browsable(filter repository.ItemFilter) []model.Item {
	var out []model.Item
	// newest first
	for i := len(f.order) - 1; i >= 0; i-- {
		item := f.items[f.order[i]]
		if !item.Approved || item.Availability != model.AvailabilityAvailable {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if !hasAllTags(item.Tags, filter.Tags) {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeItemRepo) ListBrowsable(_ context.Context, filter repository.ItemFilter, opts repository.ListOptions) ([]model.Item, int, error) {
	all := f.browsable(filter)
	total := len(all)
	if opts.Offset >= len(all) {
		return []model.Item{}, total, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, total, nil
}

func (f *fakeItemRepo) ListFeatured(_ context.Context, limit int) ([]model.Item, error) {
	all := f.browsable(repository.ItemFilter{})
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeItemRepo) ListPending(_ context.Context) ([]model.Item, error) {
	out := []model.Item{}
	for _, id := range f.order {
		if item := f.items[id]; !item.Approved {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) ListByUploader(_ context.Context, uploaderID string) ([]model.Item, error) {
	out := []model.Item{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if item := f.items[f.order[i]]; item.UploaderID == uploaderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) Approve(_ context.Context, id string) error {
	item, ok := f.items[id]
	if !ok {
		return apperror.NotFound("item", id)
	}
	item.Approved = true
	return nil
}

// setAvailability puts a stored item into an arbitrary state, for tests
// that seed redeemed or swapped items.
func (f *fakeItemRepo) setAvailability(id string, a model.Availability) {
	if item, ok := f.items[id]; ok {
		item.Availability = a
	}
}

func (f *fakeItemRepo) DeleteItem(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(f.items, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// --- swaps ---

type fakeSwapRepo struct {
	swaps  map[string]*model.Swap
	nextID int
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{swaps: make(map[string]*model.Swap)}
}

func (f *fakeSwapRepo) CreateSwap(_ context.Context, swap *model.Swap) error {
	for _, s := range f.swaps {
		if s.ItemID == swap.ItemID && s.RequesterID == swap.RequesterID && s.Status == model.SwapPending {
			return apperror.Conflict("swap", "swap request already pending for this item")
		}
	}
	f.nextID++
	swap.ID = fmt.Sprintf("swap-%d", f.nextID)
	swap.Status = model.SwapPending
	stored := *swap
	f.swaps[swap.ID] = &stored
	return nil
}

func (f *fakeSwapRepo) ListByRequester(_ context.Context, requesterID string) ([]model.Swap, error) {
	out := []model.Swap{}
	for _, s := range f.swaps {
		if s.RequesterID == requesterID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSwapRepo) DeleteSwapsByItem(_ context.Context, itemID string) error {
	for id, s := range f.swaps {
		if s.ItemID == itemID {
			delete(f.swaps, id)
		}
	}
	return nil
}

// --- exchanger ---

// fakeExchanger mirrors the transactional redeem over the two fakes.
type fakeExchanger struct {
	users *fakeUserRepo
	items *fakeItemRepo
}

func (f *fakeExchanger) RedeemItem(_ context.Context, itemID, requesterID string, cost int) error {
	item, ok := f.items.items[itemID]
	if !ok {
		return apperror.NotFound("item", itemID)
	}
	if !item.Approved {
		return apperror.Forbidden("item not approved")
	}
	if item.Availability != model.AvailabilityAvailable {
		return apperror.ValidationFailed("availability", "item is not available")
	}
	user, ok := f.users.users[requesterID]
	if !ok {
		return apperror.NotFound("user", requesterID)
	}
	if user.Points < cost {
		return apperror.ValidationFailed("points", "not enough points to redeem")
	}
	user.Points -= cost
	item.Availability = model.AvailabilityRedeemed
	return nil
}

// --- assistant ---

// fakeAssistant records calls. Mutex-guarded because services fire
// notifications from goroutines.
type fakeAssistant struct {
	mu            sync.Mutex
	notifications []assistant.Notification
	reindexed     []string
}

func (f *fakeAssistant) Available() bool { return true }

func (f *fakeAssistant) Chat(_ context.Context, message, userID, sessionID string) *assistant.ChatReply {
	return &assistant.ChatReply{Response: "ok"}
}

func (f *fakeAssistant) Search(_ context.Context, query string, topK int) *assistant.SearchResult {
	return &assistant.SearchResult{Query: query}
}

func (f *fakeAssistant) Notify(_ context.Context, n assistant.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
}

func (f *fakeAssistant) Reindex(_ context.Context, dataType, dataID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reindexed = append(f.reindexed, dataType+":"+dataID)
}

// --- image store ---

type fakeImageStore struct {
	mu     sync.Mutex
	files  map[string]bool
	nextID int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{files: make(map[string]bool)}
}

func (f *fakeImageStore) Save(data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	path := fmt.Sprintf("/uploads/fake-%d.jpg", f.nextID)
	f.files[path] = true
	return path, nil
}

func (f *fakeImageStore) Remove(publicPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, publicPath)
	return nil
}

func (f *fakeImageStore) RemoveAll(publicPaths []string) error {
	for _, p := range publicPaths {
		f.Remove(p)
	}
	return nil
}

func (f *fakeImageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}
