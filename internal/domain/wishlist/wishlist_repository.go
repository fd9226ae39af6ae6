package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists wishlist entries for a chat. Deletion is always a
// soft status flip so visit history keeps its joins.
type Repository interface {
	Save(ctx context.Context, entry types.WishlistEntry) (int64, error)
	// GetActiveEntries returns still-unvisited entries (status 'wishlist'),
	// newest first.
	GetActiveEntries(ctx context.Context, chatID string) ([]types.WishlistEntry, error)
	GetEntryByID(ctx context.Context, chatID string, id int64) (*types.WishlistEntry, error)
	GetEntryByPlaceAndChat(ctx context.Context, chatID, placeID string) (*types.WishlistEntry, error)
	// IsDuplicate reports whether the chat already has a live entry for the place.
	IsDuplicate(ctx context.Context, chatID, placeID string) (bool, error)
	// IsFirstEverAdd reports whether this would be the user's first wishlist
	// entry across all chats, for the one-time onboarding nudge.
	IsFirstEverAdd(ctx context.Context, telegramID string) (bool, error)
	SaveNote(ctx context.Context, chatID string, id int64, note string) error
	UpdateStatus(ctx context.Context, chatID string, id int64, status types.WishlistStatus) error
	SoftDelete(ctx context.Context, chatID string, id int64) error
	// ListForWebApp returns the merged wishlist+latest-visit rows for the
	// mini-app, active entries first by date added.
	ListForWebApp(ctx context.Context, chatID string) ([]types.WishlistItemView, error)
}

//revive:disable-next-line:exported
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

const entryColumns = `id, chat_id, google_place_id, name, address, area, cuisine_type,
       lat, lng, added_by, status, any_branch, notes, date_added`

func scanEntry(row pgx.Row) (*types.WishlistEntry, error) {
	var e types.WishlistEntry
	err := row.Scan(&e.ID, &e.ChatID, &e.GooglePlaceID, &e.Name, &e.Address, &e.Area,
		&e.CuisineType, &e.Lat, &e.Lng, &e.AddedBy, &e.Status, &e.AnyBranch,
		&e.Notes, &e.DateAdded)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, entry types.WishlistEntry) (int64, error) {
	ctx, span := otel.Tracer("WishlistRepo").Start(ctx, "Save", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "wishlist_entries"),
		attribute.String("chat.id", entry.ChatID),
		attribute.String("place.id", entry.GooglePlaceID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Save"), slog.String("chat_id", entry.ChatID))

	var id int64
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO wishlist_entries
            (chat_id, google_place_id, name, address, area, cuisine_type, lat, lng, added_by, any_branch, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`,
		entry.ChatID, entry.GooglePlaceID, entry.Name, entry.Address, entry.Area,
		entry.CuisineType, entry.Lat, entry.Lng, entry.AddedBy, entry.AnyBranch, entry.Notes,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save wishlist entry")
		return 0, fmt.Errorf("failed to save wishlist entry: %w", err)
	}

	l.InfoContext(ctx, "wishlist entry saved", slog.Int64("entry_id", id), slog.String("name", entry.Name))
	span.SetStatus(codes.Ok, "entry saved")
	return id, nil
}

func (r *RepositoryImpl) GetActiveEntries(ctx context.Context, chatID string) ([]types.WishlistEntry, error) {
	ctx, span := otel.Tracer("WishlistRepo").Start(ctx, "GetActiveEntries", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT `+entryColumns+`
        FROM wishlist_entries
        WHERE chat_id = $1 AND status = 'wishlist'
        ORDER BY date_added DESC`,
		chatID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch wishlist")
		return nil, fmt.Errorf("failed to fetch wishlist: %w", err)
	}
	defer rows.Close()

	var entries []types.WishlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate wishlist: %w", err)
	}
	span.SetAttributes(attribute.Int("wishlist.count", len(entries)))
	return entries, nil
}

func (r *RepositoryImpl) GetEntryByID(ctx context.Context, chatID string, id int64) (*types.WishlistEntry, error) {
	entry, err := scanEntry(r.pgpool.QueryRow(ctx, `
        SELECT `+entryColumns+`
        FROM wishlist_entries
        WHERE chat_id = $1 AND id = $2`,
		chatID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wishlist entry: %w", err)
	}
	return entry, nil
}

func (r *RepositoryImpl) GetEntryByPlaceAndChat(ctx context.Context, chatID, placeID string) (*types.WishlistEntry, error) {
	entry, err := scanEntry(r.pgpool.QueryRow(ctx, `
        SELECT `+entryColumns+`
        FROM wishlist_entries
        WHERE chat_id = $1 AND google_place_id = $2 AND status <> 'deleted'
        ORDER BY date_added DESC
        LIMIT 1`,
		chatID, placeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wishlist entry: %w", err)
	}
	return entry, nil
}

func (r *RepositoryImpl) IsDuplicate(ctx context.Context, chatID, placeID string) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM wishlist_entries
            WHERE chat_id = $1 AND google_place_id = $2 AND status <> 'deleted'
        )`,
		chatID, placeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return exists, nil
}

func (r *RepositoryImpl) IsFirstEverAdd(ctx context.Context, telegramID string) (bool, error) {
	var count int
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(*) FROM wishlist_entries WHERE added_by = $1`,
		telegramID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count user entries: %w", err)
	}
	return count == 0, nil
}

func (r *RepositoryImpl) SaveNote(ctx context.Context, chatID string, id int64, note string) error {
	return r.updateEntry(ctx, chatID, id, map[string]interface{}{"notes": note})
}

func (r *RepositoryImpl) UpdateStatus(ctx context.Context, chatID string, id int64, status types.WishlistStatus) error {
	switch status {
	case types.StatusWishlist, types.StatusVisited, types.StatusDeleted:
	default:
		return fmt.Errorf("invalid wishlist status %q", status)
	}
	return r.updateEntry(ctx, chatID, id, map[string]interface{}{"status": status})
}

func (r *RepositoryImpl) SoftDelete(ctx context.Context, chatID string, id int64) error {
	return r.updateEntry(ctx, chatID, id, map[string]interface{}{"status": types.StatusDeleted})
}

func (r *RepositoryImpl) updateEntry(ctx context.Context, chatID string, id int64, sets map[string]interface{}) error {
	ctx, span := otel.Tracer("WishlistRepo").Start(ctx, "UpdateEntry", trace.WithAttributes(
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "wishlist_entries"),
		attribute.Int64("entry.id", id),
	))
	defer span.End()

	builder := squirrel.Update("wishlist_entries").
		PlaceholderFormat(squirrel.Dollar).
		Where(squirrel.Eq{"id": id, "chat_id": chatID})
	for col, val := range sets {
		builder = builder.Set(col, val)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update wishlist entry")
		return fmt.Errorf("failed to update wishlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	span.SetStatus(codes.Ok, "entry updated")
	return nil
}

func (r *RepositoryImpl) ListForWebApp(ctx context.Context, chatID string) ([]types.WishlistItemView, error) {
	ctx, span := otel.Tracer("WishlistRepo").Start(ctx, "ListForWebApp", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	// Latest visit per place provides the rating/review shown on the card.
	rows, err := r.pgpool.Query(ctx, `
        SELECT w.id, w.name, w.address, w.area, w.cuisine_type, w.lat, w.lng,
               w.status, w.notes, w.google_place_id, v.rating, v.review
        FROM wishlist_entries w
        LEFT JOIN LATERAL (
            SELECT rating, review FROM visits
            WHERE chat_id = w.chat_id AND google_place_id = w.google_place_id
            ORDER BY visited_at DESC
            LIMIT 1
        ) v ON TRUE
        WHERE w.chat_id = $1 AND w.status <> 'deleted'
        ORDER BY w.date_added DESC`,
		chatID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch webapp wishlist")
		return nil, fmt.Errorf("failed to fetch webapp wishlist: %w", err)
	}
	defer rows.Close()

	var items []types.WishlistItemView
	for rows.Next() {
		var (
			item    types.WishlistItemView
			placeID string
		)
		err := rows.Scan(&item.ID, &item.Name, &item.Address, &item.Area, &item.CuisineType,
			&item.Lat, &item.Lng, &item.Status, &item.Notes, &placeID, &item.Rating, &item.Review)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan webapp wishlist row: %w", err)
		}
		item.MapsURL = fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", placeID)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate webapp wishlist: %w", err)
	}
	span.SetAttributes(attribute.Int("wishlist.count", len(items)))
	return items, nil
}
