package recommendation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

const (
	// visitFetchLimit caps the history window the profile is built from.
	// VisitedPlaceIDs is bounded by the same window, so chats with more
	// visits than this see only their most recent places in the set.
	visitFetchLimit    = 200
	recentVisitLimit   = 10
	wishlistHighlights = 10
	reviewSnippetRunes = 100
	topAreaLimit       = 5
	topVibeLimit       = 5
	topOccasionLimit   = 3
)

// buildTasteProfile derives the chat's taste profile from its visit history
// and wishlist. A chat with no visits gets an empty profile with
// HasHistory false; wishlist entries alone do not count as history.
func (s *ServiceImpl) buildTasteProfile(ctx context.Context, chatID string) (*types.TasteProfile, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "BuildTasteProfile", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	visits, err := s.visits.GetVisitsForChat(ctx, chatID, visitFetchLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch visits")
		return nil, fmt.Errorf("failed to build taste profile: %w", err)
	}

	if len(visits) == 0 {
		span.SetAttributes(attribute.Bool("profile.has_history", false))
		return &types.TasteProfile{
			TopAreas:           []string{},
			Vibes:              []string{},
			Occasions:          []string{},
			RecentVisits:       []types.RecentVisit{},
			WishlistHighlights: []types.WishlistHighlight{},
			VisitedPlaceIDs:    map[string]struct{}{},
		}, nil
	}

	wishlist, err := s.wishlist.GetActiveEntries(ctx, chatID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch wishlist")
		return nil, fmt.Errorf("failed to build taste profile: %w", err)
	}

	var areas []string
	for _, e := range wishlist {
		if e.Area != nil {
			areas = append(areas, *e.Area)
		}
	}

	var vibes, occasions []string
	visitedIDs := make(map[string]struct{}, len(visits))
	for _, v := range visits {
		if v.Visit.Review != nil {
			vibes = append(vibes, types.DetectVibes(*v.Visit.Review)...)
		}
		if v.Visit.Occasion != nil {
			occasions = append(occasions, *v.Visit.Occasion)
		}
		visitedIDs[v.Visit.GooglePlaceID] = struct{}{}
	}

	recent := make([]types.RecentVisit, 0, recentVisitLimit)
	for _, v := range visits {
		if len(recent) == recentVisitLimit {
			break
		}
		review := ""
		if v.Visit.Review != nil {
			review = truncateRunes(*v.Visit.Review, reviewSnippetRunes)
		}
		recent = append(recent, types.RecentVisit{
			Place:    v.PlaceName,
			Rating:   v.Visit.Rating,
			Review:   review,
			Occasion: v.Visit.Occasion,
		})
	}

	highlights := make([]types.WishlistHighlight, 0, wishlistHighlights)
	for _, e := range wishlist {
		if len(highlights) == wishlistHighlights {
			break
		}
		area := "Unknown"
		if e.Area != nil && *e.Area != "" {
			area = *e.Area
		}
		highlights = append(highlights, types.WishlistHighlight{Name: e.Name, Area: area})
	}

	span.SetAttributes(
		attribute.Bool("profile.has_history", true),
		attribute.Int("profile.visits", len(visits)),
		attribute.Int("profile.wishlist", len(wishlist)),
	)
	return &types.TasteProfile{
		HasHistory:         true,
		TopAreas:           topK(areas, topAreaLimit),
		Vibes:              topK(vibes, topVibeLimit),
		Occasions:          topK(occasions, topOccasionLimit),
		RecentVisits:       recent,
		WishlistHighlights: highlights,
		VisitedPlaceIDs:    visitedIDs,
	}, nil
}
