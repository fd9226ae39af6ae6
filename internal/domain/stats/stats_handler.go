package stats

import (
	"log/slog"
	"net/http"

	"github.com/eatwatah/eatwatah-api/internal/api"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

// Handler serves chat and admin statistics.
type Handler struct {
	repo     Repository
	adminIDs map[string]struct{}
	logger   *slog.Logger
}

func NewHandler(repo Repository, adminIDs []string, logger *slog.Logger) *Handler {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &Handler{repo: repo, adminIDs: ids, logger: logger}
}

// ChatStats handles GET /api/stats for the caller's chat.
func (h *Handler) ChatStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	chatID := identity.ChatID
	if chatID == "" {
		chatID = identity.TelegramID
	}

	stats, err := h.repo.GetChatStats(r.Context(), chatID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "chat stats failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	api.WriteJSON(w, http.StatusOK, stats)
}

// AdminStats handles GET /api/admin/stats, restricted to configured admins.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if _, isAdmin := h.adminIDs[identity.TelegramID]; !isAdmin {
		api.WriteError(w, http.StatusForbidden, "admins only")
		return
	}

	stats, err := h.repo.GetAdminStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "admin stats failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	api.WriteJSON(w, http.StatusOK, stats)
}
