package recommendation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eatwatah/eatwatah-api/internal/api"
	"github.com/eatwatah/eatwatah-api/internal/domain/stats"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

// Handler serves the recommendation endpoint.
type Handler struct {
	svc     Service
	stats   stats.Repository
	logger  *slog.Logger
	timeout time.Duration
}

func NewHandler(svc Service, statsRepo stats.Repository, timeout time.Duration, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, stats: statsRepo, logger: logger, timeout: timeout}
}

type recommendRequest struct {
	Query  string `json:"query"`
	ChatID string `json:"chat_id"`
}

// Recommend handles POST /api/recommendations. The whole pipeline runs
// under the handler's deadline; a slow model call fails the request rather
// than hanging the client.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req recommendRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		api.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	chatID, err := resolveChatID(identity, req.ChatID)
	if err != nil {
		api.WriteError(w, http.StatusForbidden, "chat not accessible")
		return
	}

	if !types.IsFoodQuery(req.Query) {
		api.WriteError(w, http.StatusUnprocessableEntity, "that doesn't look like a food question — try asking about makan instead")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.svc.GetRecommendations(ctx, req.Query, chatID, identity.TelegramID)
	if err != nil {
		h.recordFailure(ctx, identity.TelegramID, chatID, err)
		switch {
		case errors.Is(err, types.ErrMissingAPIKey):
			api.WriteError(w, http.StatusServiceUnavailable, "recommendations are not configured")
		case errors.Is(err, context.DeadlineExceeded):
			api.WriteError(w, http.StatusGatewayTimeout, "took too long, try again")
		default:
			api.WriteError(w, http.StatusInternalServerError, "something went wrong, try again later")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) recordFailure(ctx context.Context, telegramID, chatID string, err error) {
	command := "recommendations"
	errType := "pipeline"
	message := err.Error()
	h.stats.RecordError(ctx, types.ErrorRecord{
		TelegramID: &telegramID,
		ChatID:     &chatID,
		Command:    &command,
		ErrorType:  &errType,
		Message:    &message,
	})
}

// resolveChatID picks the chat the caller may act on. JWT sessions are
// chat-scoped already; raw init-data callers only get their own DM chat
// unless they name it explicitly as such.
func resolveChatID(identity *middleware.Identity, requested string) (string, error) {
	if identity.ChatID != "" {
		if requested != "" && requested != identity.ChatID {
			return "", errors.New("chat mismatch")
		}
		return identity.ChatID, nil
	}
	if requested == "" || requested == identity.TelegramID {
		return identity.TelegramID, nil
	}
	return "", errors.New("chat not accessible")
}
