package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eatwatah/eatwatah-api/internal/api"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/auth"
	"github.com/eatwatah/eatwatah-api/pkg/config"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

// Handler serves session exchange and account lifecycle endpoints.
type Handler struct {
	repo   Repository
	cfg    config.TelegramConfig
	logger *slog.Logger
}

func NewHandler(repo Repository, cfg config.TelegramConfig, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, cfg: cfg, logger: logger}
}

type sessionRequest struct {
	ChatID string `json:"chat_id"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

// CreateSession handles POST /api/session. Callers authenticate with raw
// init data and exchange it for a chat-scoped JWT; group chats require the
// user to have activity in that chat.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req sessionRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	chatID := req.ChatID
	if chatID == "" {
		chatID = identity.TelegramID
	}

	// Registration safety net: sessions are the first touch point for
	// WebApp-only users, so register them and the chat here.
	chatType := types.ChatGroup
	if chatID == identity.TelegramID {
		chatType = types.ChatPrivate
	}
	isNew, err := h.repo.EnsureUserAndChat(r.Context(), identity.TelegramID, identity.DisplayName, chatID, chatType, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "registration failed", slog.Any("error", err))
	} else if isNew {
		h.logger.InfoContext(r.Context(), "new user registered", slog.String("telegram_id", identity.TelegramID))
	}

	member, err := h.repo.IsChatMember(r.Context(), identity.TelegramID, chatID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "membership check failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if !member {
		api.WriteError(w, http.StatusForbidden, "chat not accessible")
		return
	}

	// A returning user touching the WebApp counts as activity.
	if _, err := h.repo.ReactivateIfNeeded(r.Context(), identity.TelegramID); err != nil {
		h.logger.WarnContext(r.Context(), "reactivation check failed", slog.Any("error", err))
	}

	token, err := auth.IssueSessionToken(h.cfg.JWTSecret, identity.TelegramID, chatID, h.cfg.TokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue session token", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	api.WriteJSON(w, http.StatusOK, sessionResponse{Token: token})
}

// DeactivateAccount handles POST /api/account/deactivate: pause the user
// without touching their data, reversible on their next session.
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.repo.Deactivate(r.Context(), identity.TelegramID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "deactivation failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /api/account: anonymise the user and purge
// their personal content.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.repo.AnonymiseAndDeleteAccount(r.Context(), identity.TelegramID); err != nil {
		h.logger.ErrorContext(r.Context(), "account deletion failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
