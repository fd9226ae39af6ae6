package visits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	SaveVisit(ctx context.Context, visit types.Visit) (int64, error)
	// GetVisitsForChat returns the chat's visits newest-first, each joined
	// with the place name (wishlist entry name wins over the stored name)
	// and the logger's display name.
	GetVisitsForChat(ctx context.Context, chatID string, limit int) ([]types.VisitWithContext, error)
	// CountVisitsAtPlace reports how many times the chat has logged the place.
	CountVisitsAtPlace(ctx context.Context, chatID, placeID string) (int, error)
}

//revive:disable-next-line:exported
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) SaveVisit(ctx context.Context, visit types.Visit) (int64, error) {
	ctx, span := otel.Tracer("VisitsRepo").Start(ctx, "SaveVisit", trace.WithAttributes(
		attribute.String("chat.id", visit.ChatID),
		attribute.String("place.id", visit.GooglePlaceID),
	))
	defer span.End()

	var visitedAt *time.Time
	if !visit.VisitedAt.IsZero() {
		visitedAt = &visit.VisitedAt
	}

	var id int64
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO visits (chat_id, google_place_id, place_name, logged_by, rating, review, occasion, photos, visited_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
        RETURNING id`,
		visit.ChatID, visit.GooglePlaceID, visit.PlaceName, visit.LoggedBy,
		visit.Rating, visit.Review, visit.Occasion, visit.Photos, visitedAt,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save visit")
		return 0, fmt.Errorf("failed to save visit: %w", err)
	}
	span.SetAttributes(attribute.Int64("visit.id", id))
	return id, nil
}

func (r *RepositoryImpl) GetVisitsForChat(ctx context.Context, chatID string, limit int) ([]types.VisitWithContext, error) {
	ctx, span := otel.Tracer("VisitsRepo").Start(ctx, "GetVisitsForChat", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT v.id, v.chat_id, v.google_place_id, v.place_name, v.logged_by,
               v.rating, v.review, v.occasion, v.photos, v.visited_at,
               w.name AS wishlist_name, u.display_name
        FROM visits v
        LEFT JOIN wishlist_entries w ON w.chat_id = v.chat_id AND w.google_place_id = v.google_place_id
        LEFT JOIN users u ON u.telegram_id = v.logged_by
        WHERE v.chat_id = $1
        ORDER BY v.visited_at DESC
        LIMIT $2`,
		chatID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch visits")
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}
	defer rows.Close()

	var visits []types.VisitWithContext
	for rows.Next() {
		var (
			v            types.Visit
			wishlistName *string
			displayName  *string
		)
		err := rows.Scan(&v.ID, &v.ChatID, &v.GooglePlaceID, &v.PlaceName, &v.LoggedBy,
			&v.Rating, &v.Review, &v.Occasion, &v.Photos, &v.VisitedAt,
			&wishlistName, &displayName)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}

		vc := types.VisitWithContext{Visit: v, PlaceName: "Unknown Place", UserName: "Someone"}
		if wishlistName != nil && *wishlistName != "" {
			vc.PlaceName = *wishlistName
		} else if v.PlaceName != nil && *v.PlaceName != "" {
			vc.PlaceName = *v.PlaceName
		}
		if displayName != nil && *displayName != "" {
			vc.UserName = *displayName
		}
		visits = append(visits, vc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	span.SetAttributes(attribute.Int("visits.count", len(visits)))
	return visits, nil
}

func (r *RepositoryImpl) CountVisitsAtPlace(ctx context.Context, chatID, placeID string) (int, error) {
	var count int
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(*) FROM visits WHERE chat_id = $1 AND google_place_id = $2`,
		chatID, placeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}
