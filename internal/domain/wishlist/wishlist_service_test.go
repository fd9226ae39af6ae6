package wishlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, entry types.WishlistEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetActiveEntries(ctx context.Context, chatID string) ([]types.WishlistEntry, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.WishlistEntry), args.Error(1)
}

func (m *MockRepository) GetEntryByID(ctx context.Context, chatID string, id int64) (*types.WishlistEntry, error) {
	args := m.Called(ctx, chatID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WishlistEntry), args.Error(1)
}

func (m *MockRepository) GetEntryByPlaceAndChat(ctx context.Context, chatID, placeID string) (*types.WishlistEntry, error) {
	args := m.Called(ctx, chatID, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WishlistEntry), args.Error(1)
}

func (m *MockRepository) IsDuplicate(ctx context.Context, chatID, placeID string) (bool, error) {
	args := m.Called(ctx, chatID, placeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IsFirstEverAdd(ctx context.Context, telegramID string) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SaveNote(ctx context.Context, chatID string, id int64, note string) error {
	args := m.Called(ctx, chatID, id, note)
	return args.Error(0)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, chatID string, id int64, status types.WishlistStatus) error {
	args := m.Called(ctx, chatID, id, status)
	return args.Error(0)
}

func (m *MockRepository) SoftDelete(ctx context.Context, chatID string, id int64) error {
	args := m.Called(ctx, chatID, id)
	return args.Error(0)
}

func (m *MockRepository) ListForWebApp(ctx context.Context, chatID string) ([]types.WishlistItemView, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.WishlistItemView), args.Error(1)
}

type MockPlacesClient struct {
	mock.Mock
}

func (m *MockPlacesClient) SearchText(ctx context.Context, query string, maxResults int) ([]types.Candidate, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Candidate), args.Error(1)
}

func newTestService(repo *MockRepository, placesClient *MockPlacesClient) *ServiceImpl {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServiceImpl(repo, placesClient, logger)
}

func TestService_AddPlace(t *testing.T) {
	ctx := context.Background()
	area := "Katong"
	match := types.Candidate{
		PlaceID: "place-abc",
		Name:    "328 Katong Laksa",
		Address: "51 East Coast Rd",
		Area:    &area,
	}

	t.Run("saves the top search match", func(t *testing.T) {
		repo := new(MockRepository)
		placesClient := new(MockPlacesClient)
		svc := newTestService(repo, placesClient)

		placesClient.On("SearchText", mock.Anything, "katong laksa", 1).
			Return([]types.Candidate{match}, nil)
		repo.On("IsDuplicate", mock.Anything, "chat-1", "place-abc").Return(false, nil)
		repo.On("IsFirstEverAdd", mock.Anything, "user-9").Return(true, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(e types.WishlistEntry) bool {
			return e.GooglePlaceID == "place-abc" && e.ChatID == "chat-1" &&
				e.AddedBy == "user-9" && e.Status == types.StatusWishlist
		})).Return(int64(42), nil)

		result, err := svc.AddPlace(ctx, "chat-1", "user-9", "  katong laksa  ")
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.True(t, result.FirstAdd)
		assert.Equal(t, "328 Katong Laksa", result.MatchedName)
		assert.Equal(t, int64(42), result.Entry.ID)
		repo.AssertExpectations(t)
		placesClient.AssertExpectations(t)
	})

	t.Run("duplicate returns the existing entry without saving", func(t *testing.T) {
		repo := new(MockRepository)
		placesClient := new(MockPlacesClient)
		svc := newTestService(repo, placesClient)

		existing := &types.WishlistEntry{ID: 7, ChatID: "chat-1", GooglePlaceID: "place-abc"}
		placesClient.On("SearchText", mock.Anything, "katong laksa", 1).
			Return([]types.Candidate{match}, nil)
		repo.On("IsDuplicate", mock.Anything, "chat-1", "place-abc").Return(true, nil)
		repo.On("GetEntryByPlaceAndChat", mock.Anything, "chat-1", "place-abc").Return(existing, nil)

		result, err := svc.AddPlace(ctx, "chat-1", "user-9", "katong laksa")
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Equal(t, int64(7), result.Entry.ID)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no search results", func(t *testing.T) {
		repo := new(MockRepository)
		placesClient := new(MockPlacesClient)
		svc := newTestService(repo, placesClient)

		placesClient.On("SearchText", mock.Anything, "zzzz", 1).Return([]types.Candidate{}, nil)

		_, err := svc.AddPlace(ctx, "chat-1", "user-9", "zzzz")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("first-add check failure only drops the nudge", func(t *testing.T) {
		repo := new(MockRepository)
		placesClient := new(MockPlacesClient)
		svc := newTestService(repo, placesClient)

		placesClient.On("SearchText", mock.Anything, "katong laksa", 1).
			Return([]types.Candidate{match}, nil)
		repo.On("IsDuplicate", mock.Anything, "chat-1", "place-abc").Return(false, nil)
		repo.On("IsFirstEverAdd", mock.Anything, "user-9").Return(false, errors.New("db flaky"))
		repo.On("Save", mock.Anything, mock.Anything).Return(int64(43), nil)

		result, err := svc.AddPlace(ctx, "chat-1", "user-9", "katong laksa")
		require.NoError(t, err)
		assert.False(t, result.FirstAdd)
	})

	t.Run("empty query rejected before search", func(t *testing.T) {
		repo := new(MockRepository)
		placesClient := new(MockPlacesClient)
		svc := newTestService(repo, placesClient)

		_, err := svc.AddPlace(ctx, "chat-1", "user-9", "   ")
		assert.Error(t, err)
		placesClient.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything, mock.Anything)
	})
}
