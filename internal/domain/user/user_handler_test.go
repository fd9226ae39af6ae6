package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/auth"
	"github.com/eatwatah/eatwatah-api/pkg/config"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) EnsureUserAndChat(ctx context.Context, telegramID, displayName, chatID string, chatType types.ChatType, chatName *string) (bool, error) {
	args := m.Called(ctx, telegramID, displayName, chatID, chatType, chatName)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IsChatMember(ctx context.Context, telegramID, chatID string) (bool, error) {
	args := m.Called(ctx, telegramID, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ReactivateIfNeeded(ctx context.Context, telegramID string) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Deactivate(ctx context.Context, telegramID string) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockRepository) AnonymiseAndDeleteAccount(ctx context.Context, telegramID string) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func newTestHandler(repo *MockRepository) *Handler {
	cfg := config.TelegramConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(repo, cfg, logger)
}

func authedRequest(method, target string, body []byte, identity *middleware.Identity) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
}

func TestHandler_CreateSession(t *testing.T) {
	identity := &middleware.Identity{TelegramID: "111", DisplayName: "Mei Lin"}

	t.Run("registers the user before issuing a DM token", func(t *testing.T) {
		repo := new(MockRepository)
		h := newTestHandler(repo)

		repo.On("EnsureUserAndChat", mock.Anything, "111", "Mei Lin", "111", types.ChatPrivate, (*string)(nil)).
			Return(true, nil)
		repo.On("IsChatMember", mock.Anything, "111", "111").Return(true, nil)
		repo.On("ReactivateIfNeeded", mock.Anything, "111").Return(false, nil)

		rec := httptest.NewRecorder()
		h.CreateSession(rec, authedRequest(http.MethodPost, "/api/session", []byte(`{}`), identity))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		claims, err := auth.ParseSessionToken("test-secret", resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "111", claims.TelegramID)
		assert.Equal(t, "111", claims.ChatID)
		repo.AssertExpectations(t)
	})

	t.Run("group chat registered as group and gated on membership", func(t *testing.T) {
		repo := new(MockRepository)
		h := newTestHandler(repo)

		repo.On("EnsureUserAndChat", mock.Anything, "111", "Mei Lin", "-222", types.ChatGroup, (*string)(nil)).
			Return(false, nil)
		repo.On("IsChatMember", mock.Anything, "111", "-222").Return(false, nil)

		rec := httptest.NewRecorder()
		h.CreateSession(rec, authedRequest(http.MethodPost, "/api/session", []byte(`{"chat_id":"-222"}`), identity))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("registration failure does not block the session", func(t *testing.T) {
		repo := new(MockRepository)
		h := newTestHandler(repo)

		repo.On("EnsureUserAndChat", mock.Anything, "111", "Mei Lin", "111", types.ChatPrivate, (*string)(nil)).
			Return(false, errors.New("db flaky"))
		repo.On("IsChatMember", mock.Anything, "111", "111").Return(true, nil)
		repo.On("ReactivateIfNeeded", mock.Anything, "111").Return(false, nil)

		rec := httptest.NewRecorder()
		h.CreateSession(rec, authedRequest(http.MethodPost, "/api/session", []byte(`{}`), identity))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandler_DeactivateAccount(t *testing.T) {
	identity := &middleware.Identity{TelegramID: "111"}

	t.Run("deactivates the caller", func(t *testing.T) {
		repo := new(MockRepository)
		h := newTestHandler(repo)

		repo.On("Deactivate", mock.Anything, "111").Return(nil)

		rec := httptest.NewRecorder()
		h.DeactivateAccount(rec, authedRequest(http.MethodPost, "/api/account/deactivate", nil, identity))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := new(MockRepository)
		h := newTestHandler(repo)

		repo.On("Deactivate", mock.Anything, "111").Return(types.ErrNotFound)

		rec := httptest.NewRecorder()
		h.DeactivateAccount(rec, authedRequest(http.MethodPost, "/api/account/deactivate", nil, identity))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
