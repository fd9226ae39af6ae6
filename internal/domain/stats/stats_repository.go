package stats

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetChatStats(ctx context.Context, chatID string) (*types.ChatStats, error)
	GetAdminStats(ctx context.Context) (*types.AdminStats, error)
	// RecordError writes a diagnostic row. It logs on failure but never
	// returns an error, so callers can use it from their own error paths.
	RecordError(ctx context.Context, record types.ErrorRecord)
}

//revive:disable-next-line:exported
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) GetChatStats(ctx context.Context, chatID string) (*types.ChatStats, error) {
	ctx, span := otel.Tracer("StatsRepo").Start(ctx, "GetChatStats", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	var stats types.ChatStats
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE status <> 'deleted'),
               COUNT(*) FILTER (WHERE status = 'visited')
        FROM wishlist_entries
        WHERE chat_id = $1`,
		chatID).Scan(&stats.TotalSaved, &stats.VisitedCount)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch chat stats: %w", err)
	}
	return &stats, nil
}

func (r *RepositoryImpl) GetAdminStats(ctx context.Context) (*types.AdminStats, error) {
	ctx, span := otel.Tracer("StatsRepo").Start(ctx, "GetAdminStats")
	defer span.End()

	var stats types.AdminStats
	err := r.pgpool.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users WHERE is_deleted = FALSE),
            (SELECT COUNT(*) FROM chats),
            (SELECT COUNT(*) FROM wishlist_entries WHERE status <> 'deleted'),
            (SELECT COUNT(*) FROM visits),
            (SELECT COUNT(*) FROM errors WHERE ts > NOW() - INTERVAL '24 hours')`,
	).Scan(&stats.Users, &stats.Chats, &stats.Wishlist, &stats.Visits, &stats.Errors24h)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch admin stats: %w", err)
	}
	return &stats, nil
}

func (r *RepositoryImpl) RecordError(ctx context.Context, record types.ErrorRecord) {
	// Intentionally context.WithoutCancel: error rows should land even when
	// the request that produced them has already timed out.
	ctx = context.WithoutCancel(ctx)
	_, err := r.pgpool.Exec(ctx, `
        INSERT INTO errors (telegram_id, chat_id, command, error_type, message)
        VALUES ($1, $2, $3, $4, $5)`,
		record.TelegramID, record.ChatID, record.Command, record.ErrorType, record.Message)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to record error row", slog.Any("error", err))
	}
}
