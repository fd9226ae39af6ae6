package visits

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eatwatah/eatwatah-api/internal/api"
	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/middleware"
)

const defaultListLimit = 20

// Handler serves visit logging and history endpoints.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type logVisitRequest struct {
	GooglePlaceID string     `json:"google_place_id"`
	PlaceName     *string    `json:"place_name"`
	Rating        *int       `json:"rating"`
	Review        *string    `json:"review"`
	Occasion      *string    `json:"occasion"`
	Photos        []string   `json:"photos"`
	VisitedAt     *time.Time `json:"visited_at"`
}

type logVisitResponse struct {
	ID int64 `json:"id"`
	// VisitCount includes this visit, for the "Nth time here" notice.
	VisitCount int `json:"visit_count,omitempty"`
}

// LogVisit handles POST /api/visits.
func (h *Handler) LogVisit(w http.ResponseWriter, r *http.Request) {
	identity, chatID, ok := callerChat(w, r)
	if !ok {
		return
	}

	var req logVisitRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.GooglePlaceID == "" {
		api.WriteError(w, http.StatusBadRequest, "google_place_id is required")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		api.WriteError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	visit := types.Visit{
		ChatID:        chatID,
		GooglePlaceID: req.GooglePlaceID,
		LoggedBy:      identity.TelegramID,
		PlaceName:     req.PlaceName,
		Rating:        req.Rating,
		Review:        req.Review,
		Occasion:      req.Occasion,
		Photos:        req.Photos,
	}
	if req.VisitedAt != nil {
		visit.VisitedAt = *req.VisitedAt
	}

	id, err := h.repo.SaveVisit(r.Context(), visit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "visit save failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	count, err := h.repo.CountVisitsAtPlace(r.Context(), chatID, req.GooglePlaceID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "visit count failed", slog.Any("error", err))
		count = 0
	}
	api.WriteJSON(w, http.StatusCreated, logVisitResponse{ID: id, VisitCount: count})
}

type visitsResponse struct {
	Visits []types.VisitWithContext `json:"visits"`
}

// List handles GET /api/visits: the chat's history, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, chatID, ok := callerChat(w, r)
	if !ok {
		return
	}

	visits, err := h.repo.GetVisitsForChat(r.Context(), chatID, defaultListLimit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "visits fetch failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if visits == nil {
		visits = []types.VisitWithContext{}
	}
	api.WriteJSON(w, http.StatusOK, visitsResponse{Visits: visits})
}

func callerChat(w http.ResponseWriter, r *http.Request) (*middleware.Identity, string, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return nil, "", false
	}
	chatID := identity.ChatID
	if chatID == "" {
		chatID = identity.TelegramID
	}
	return identity, chatID, true
}
