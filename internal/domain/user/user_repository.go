package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eatwatah/eatwatah-api/internal/types"
	"github.com/eatwatah/eatwatah-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository covers user and chat registration plus account lifecycle.
type Repository interface {
	// EnsureUserAndChat registers the user and chat if missing.
	// Returns true when the user was newly registered.
	EnsureUserAndChat(ctx context.Context, telegramID, displayName, chatID string, chatType types.ChatType, chatName *string) (bool, error)
	// IsChatMember reports whether the user has any activity in the chat.
	// A user's own DM chat always counts.
	IsChatMember(ctx context.Context, telegramID, chatID string) (bool, error)
	// ReactivateIfNeeded flips is_deactivated back off for a returning user.
	// Returns true only when the user was actually reactivated.
	ReactivateIfNeeded(ctx context.Context, telegramID string) (bool, error)
	Deactivate(ctx context.Context, telegramID string) error
	// AnonymiseAndDeleteAccount performs the PDPA-style deletion: anonymise
	// the user row, soft-delete their DM wishlist, strip photos from all
	// their visits and rating/review/occasion from DM visits.
	AnonymiseAndDeleteAccount(ctx context.Context, telegramID string) error
}

//revive:disable-next-line:exported
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) EnsureUserAndChat(ctx context.Context, telegramID, displayName, chatID string, chatType types.ChatType, chatName *string) (bool, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "EnsureUserAndChat", trace.WithAttributes(
		attribute.String("user.telegram_id", telegramID),
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	if displayName == "" {
		displayName = "Friend"
	}
	switch chatType {
	case types.ChatPrivate, types.ChatGroup, types.ChatSupergroup:
	default:
		chatType = types.ChatPrivate
	}

	var userTag pgconn.CommandTag
	userTag, err := r.pgpool.Exec(ctx, `
        INSERT INTO users (telegram_id, display_name)
        VALUES ($1, $2)
        ON CONFLICT (telegram_id) DO NOTHING`,
		telegramID, displayName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert user")
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}

	_, err = r.pgpool.Exec(ctx, `
        INSERT INTO chats (chat_id, chat_type, chat_name)
        VALUES ($1, $2, $3)
        ON CONFLICT (chat_id) DO NOTHING`,
		chatID, chatType, chatName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert chat")
		return false, fmt.Errorf("failed to upsert chat: %w", err)
	}

	isNewUser := userTag.RowsAffected() > 0
	span.SetAttributes(attribute.Bool("user.is_new", isNewUser))
	return isNewUser, nil
}

func (r *RepositoryImpl) IsChatMember(ctx context.Context, telegramID, chatID string) (bool, error) {
	if telegramID == chatID {
		return true, nil
	}
	var member bool
	err := r.pgpool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM wishlist_entries WHERE chat_id = $1 AND added_by = $2)
            OR EXISTS (SELECT 1 FROM visits WHERE chat_id = $1 AND logged_by = $2)`,
		chatID, telegramID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("failed to check chat membership: %w", err)
	}
	return member, nil
}

func (r *RepositoryImpl) ReactivateIfNeeded(ctx context.Context, telegramID string) (bool, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ReactivateIfNeeded")
	defer span.End()

	var isDeleted, isDeactivated bool
	err := r.pgpool.QueryRow(ctx, `
        SELECT is_deleted, is_deactivated FROM users WHERE telegram_id = $1`,
		telegramID).Scan(&isDeleted, &isDeactivated)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // new user, registration handles them
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	if isDeleted || !isDeactivated {
		return false, nil
	}

	_, err = r.pgpool.Exec(ctx, `
        UPDATE users SET is_deactivated = FALSE WHERE telegram_id = $1`,
		telegramID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reactivate user")
		return false, fmt.Errorf("failed to reactivate user: %w", err)
	}
	r.logger.InfoContext(ctx, "user reactivated", slog.String("telegram_id", telegramID))
	return true, nil
}

func (r *RepositoryImpl) Deactivate(ctx context.Context, telegramID string) error {
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE users SET is_deactivated = TRUE
        WHERE telegram_id = $1 AND is_deleted = FALSE`,
		telegramID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) AnonymiseAndDeleteAccount(ctx context.Context, telegramID string) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "AnonymiseAndDeleteAccount", trace.WithAttributes(
		attribute.String("user.telegram_id", telegramID),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start transaction")
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.ErrorContext(ctx, "rollback failed after error",
					slog.Any("original_error", err), slog.Any("rollback_error", rbErr))
			}
		}
	}()

	// 1. Anonymise the user record.
	_, err = tx.Exec(ctx, `
        UPDATE users SET is_deleted = TRUE, display_name = 'Deleted User'
        WHERE telegram_id = $1`,
		telegramID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to anonymise user: %w", err)
	}

	// 2. Soft-delete private DM wishlist entries (chat_id == telegram_id).
	_, err = tx.Exec(ctx, `
        UPDATE wishlist_entries SET status = 'deleted'
        WHERE chat_id = $1 AND status <> 'deleted'`,
		telegramID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to soft-delete wishlist entries: %w", err)
	}

	// 3. Clear photos from all visits by this user, in every chat.
	_, err = tx.Exec(ctx, `
        UPDATE visits SET photos = NULL WHERE logged_by = $1`,
		telegramID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear visit photos: %w", err)
	}

	// 4. Clear PII content from visits in the private DM chat.
	_, err = tx.Exec(ctx, `
        UPDATE visits SET review = NULL, rating = NULL, occasion = NULL
        WHERE chat_id = $1 AND logged_by = $1`,
		telegramID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear visit content: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit")
		return fmt.Errorf("failed to commit account deletion: %w", err)
	}
	r.logger.InfoContext(ctx, "account anonymised and deleted", slog.String("telegram_id", telegramID))
	return nil
}
