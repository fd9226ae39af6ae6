package wishlist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/places"
	"github.com/eatwatah/eatwatah-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// AddResult tells the caller what happened on save, including the hints
// the bot surfaces (duplicate notice, first-ever onboarding nudge).
type AddResult struct {
	Entry       *types.WishlistEntry
	Duplicate   bool
	FirstAdd    bool
	MatchedName string
}

type Service interface {
	// AddPlace resolves a free-text place against Places search and saves
	// the top match to the chat's wishlist.
	AddPlace(ctx context.Context, chatID, addedBy, query string) (*AddResult, error)
	GetWishlist(ctx context.Context, chatID string) ([]types.WishlistEntry, error)
	GetWebAppWishlist(ctx context.Context, chatID string) ([]types.WishlistItemView, error)
	SaveNote(ctx context.Context, chatID string, entryID int64, note string) error
	MarkVisited(ctx context.Context, chatID string, entryID int64) error
	Remove(ctx context.Context, chatID string, entryID int64) error
}

//revive:disable-next-line:exported
type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	places places.Client
}

func NewServiceImpl(repo Repository, placesClient places.Client, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, places: placesClient}
}

func (s *ServiceImpl) AddPlace(ctx context.Context, chatID, addedBy, query string) (*AddResult, error) {
	ctx, span := otel.Tracer("WishlistService").Start(ctx, "AddPlace", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "AddPlace"), slog.String("chat_id", chatID))

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty place query")
	}

	candidates, err := s.places.SearchText(ctx, query, 1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "places search failed")
		return nil, fmt.Errorf("failed to search place: %w", err)
	}
	if len(candidates) == 0 {
		return nil, types.ErrNotFound
	}
	match := candidates[0]

	dup, err := s.repo.IsDuplicate(ctx, chatID, match.PlaceID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if dup {
		existing, err := s.repo.GetEntryByPlaceAndChat(ctx, chatID, match.PlaceID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to load duplicate entry: %w", err)
		}
		l.InfoContext(ctx, "duplicate wishlist add", slog.String("place_id", match.PlaceID))
		return &AddResult{Entry: existing, Duplicate: true, MatchedName: match.Name}, nil
	}

	// First-ever check runs before the insert so the insert does not
	// count itself.
	firstAdd, err := s.repo.IsFirstEverAdd(ctx, addedBy)
	if err != nil {
		l.WarnContext(ctx, "first-add check failed, skipping nudge", slog.Any("error", err))
		firstAdd = false
	}

	entry := types.WishlistEntry{
		ChatID:        chatID,
		GooglePlaceID: match.PlaceID,
		Name:          match.Name,
		Address:       match.Address,
		Area:          match.Area,
		CuisineType:   match.CuisineType,
		Lat:           match.Lat,
		Lng:           match.Lng,
		AddedBy:       addedBy,
		Status:        types.StatusWishlist,
	}
	id, err := s.repo.Save(ctx, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save entry")
		return nil, err
	}
	entry.ID = id

	span.SetStatus(codes.Ok, "place added")
	return &AddResult{Entry: &entry, FirstAdd: firstAdd, MatchedName: match.Name}, nil
}

func (s *ServiceImpl) GetWishlist(ctx context.Context, chatID string) ([]types.WishlistEntry, error) {
	return s.repo.GetActiveEntries(ctx, chatID)
}

func (s *ServiceImpl) GetWebAppWishlist(ctx context.Context, chatID string) ([]types.WishlistItemView, error) {
	return s.repo.ListForWebApp(ctx, chatID)
}

func (s *ServiceImpl) SaveNote(ctx context.Context, chatID string, entryID int64, note string) error {
	return s.repo.SaveNote(ctx, chatID, entryID, strings.TrimSpace(note))
}

func (s *ServiceImpl) MarkVisited(ctx context.Context, chatID string, entryID int64) error {
	return s.repo.UpdateStatus(ctx, chatID, entryID, types.StatusVisited)
}

func (s *ServiceImpl) Remove(ctx context.Context, chatID string, entryID int64) error {
	return s.repo.SoftDelete(ctx, chatID, entryID)
}
