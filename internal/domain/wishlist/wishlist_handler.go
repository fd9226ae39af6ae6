package wishlist

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eatwatah/eatwatah-api/internal/api"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

// Handler serves the WebApp wishlist endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type wishlistResponse struct {
	Items []types.WishlistItemView `json:"items"`
}

// List handles GET /api/wishlist: the merged wishlist+latest-visit view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, chatID, ok := h.callerChat(w, r)
	if !ok {
		return
	}

	items, err := h.svc.GetWebAppWishlist(r.Context(), chatID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "wishlist fetch failed",
			slog.String("chat_id", chatID), slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if items == nil {
		items = []types.WishlistItemView{}
	}
	api.WriteJSON(w, http.StatusOK, wishlistResponse{Items: items})
}

type addRequest struct {
	Query string `json:"query"`
}

type addResponse struct {
	Entry     *types.WishlistEntry `json:"entry"`
	Duplicate bool                 `json:"duplicate"`
	FirstAdd  bool                 `json:"first_add"`
}

// Add handles POST /api/wishlist: resolve a free-text place and save it.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	identity, chatID, ok := h.callerChat(w, r)
	if !ok {
		return
	}

	var req addRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.Query == "" {
		api.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.AddPlace(r.Context(), chatID, identity.TelegramID, req.Query)
	if errors.Is(err, types.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "couldn't find that place")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "wishlist add failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	api.WriteJSON(w, status, addResponse{
		Entry:     result.Entry,
		Duplicate: result.Duplicate,
		FirstAdd:  result.FirstAdd,
	})
}

type updateRequest struct {
	Status *types.WishlistStatus `json:"status"`
	Notes  *string               `json:"notes"`
}

// Update handles PATCH /api/wishlist/{id}: status flips and note edits.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, chatID, ok := h.callerChat(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var req updateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case types.StatusVisited:
			err = h.svc.MarkVisited(r.Context(), chatID, entryID)
		case types.StatusDeleted:
			err = h.svc.Remove(r.Context(), chatID, entryID)
		default:
			api.WriteError(w, http.StatusBadRequest, "unsupported status")
			return
		}
		if h.writeUpdateError(w, r, err) {
			return
		}
	}
	if req.Notes != nil {
		if h.writeUpdateError(w, r, h.svc.SaveNote(r.Context(), chatID, entryID, *req.Notes)) {
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/wishlist/{id}: always a soft delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, chatID, ok := h.callerChat(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if h.writeUpdateError(w, r, h.svc.Remove(r.Context(), chatID, entryID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, types.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "entry not found")
		return true
	}
	h.logger.ErrorContext(r.Context(), "wishlist update failed", slog.Any("error", err))
	api.WriteError(w, http.StatusInternalServerError, "something went wrong")
	return true
}

// callerChat resolves the target chat from the authenticated identity.
// JWT sessions carry their chat; raw init-data callers act on their DM.
func (h *Handler) callerChat(w http.ResponseWriter, r *http.Request) (*middleware.Identity, string, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return nil, "", false
	}
	chatID := identity.ChatID
	if chatID == "" {
		chatID = identity.TelegramID
	}
	if requested := r.URL.Query().Get("chat_id"); requested != "" && requested != chatID {
		api.WriteError(w, http.StatusForbidden, "chat not accessible")
		return nil, "", false
	}
	return identity, chatID, true
}
