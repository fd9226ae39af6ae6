package user

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatwatah/eatwatah-api/internal/types"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	return NewRepositoryImpl(mockPool, logger), mockPool
}

func TestRepository_EnsureUserAndChat(t *testing.T) {
	t.Run("new user registered", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectExec("INSERT INTO users").
			WithArgs("111", "Mei Lin").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO chats").
			WithArgs("111", types.ChatPrivate, (*string)(nil)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		isNew, err := repo.EnsureUserAndChat(context.Background(), "111", "Mei Lin", "111", types.ChatPrivate, nil)
		require.NoError(t, err)
		assert.True(t, isNew)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("returning user not flagged as new", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectExec("INSERT INTO users").
			WithArgs("111", "Mei Lin").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockPool.ExpectExec("INSERT INTO chats").
			WithArgs("111", types.ChatPrivate, (*string)(nil)).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		isNew, err := repo.EnsureUserAndChat(context.Background(), "111", "Mei Lin", "111", types.ChatPrivate, nil)
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("blank name and unknown chat type get defaults", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectExec("INSERT INTO users").
			WithArgs("111", "Friend").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO chats").
			WithArgs("111", types.ChatPrivate, (*string)(nil)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		_, err := repo.EnsureUserAndChat(context.Background(), "111", "", "111", types.ChatType("channel"), nil)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_IsChatMember(t *testing.T) {
	t.Run("own DM always a member", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		member, err := repo.IsChatMember(context.Background(), "111", "111")
		require.NoError(t, err)
		assert.True(t, member)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("group membership from activity", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery("SELECT EXISTS").
			WithArgs("-222", "111").
			WillReturnRows(pgxmock.NewRows([]string{"member"}).AddRow(true))

		member, err := repo.IsChatMember(context.Background(), "111", "-222")
		require.NoError(t, err)
		assert.True(t, member)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_ReactivateIfNeeded(t *testing.T) {
	t.Run("unknown user is a no-op", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery("SELECT is_deleted, is_deactivated").
			WithArgs("111").
			WillReturnError(pgx.ErrNoRows)

		reactivated, err := repo.ReactivateIfNeeded(context.Background(), "111")
		require.NoError(t, err)
		assert.False(t, reactivated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("deactivated user flipped back on", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery("SELECT is_deleted, is_deactivated").
			WithArgs("111").
			WillReturnRows(pgxmock.NewRows([]string{"is_deleted", "is_deactivated"}).AddRow(false, true))
		mockPool.ExpectExec("UPDATE users SET is_deactivated = FALSE").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		reactivated, err := repo.ReactivateIfNeeded(context.Background(), "111")
		require.NoError(t, err)
		assert.True(t, reactivated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("deleted user stays deleted", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery("SELECT is_deleted, is_deactivated").
			WithArgs("111").
			WillReturnRows(pgxmock.NewRows([]string{"is_deleted", "is_deactivated"}).AddRow(true, true))

		reactivated, err := repo.ReactivateIfNeeded(context.Background(), "111")
		require.NoError(t, err)
		assert.False(t, reactivated)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepository_Deactivate_NotFound(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectExec("UPDATE users SET is_deactivated = TRUE").
		WithArgs("111").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Deactivate(context.Background(), "111")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepository_AnonymiseAndDeleteAccount(t *testing.T) {
	t.Run("runs all steps in one transaction", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBeginTx(pgx.TxOptions{})
		mockPool.ExpectExec("UPDATE users SET is_deleted = TRUE").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec("UPDATE wishlist_entries SET status = 'deleted'").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 3))
		mockPool.ExpectExec("UPDATE visits SET photos = NULL").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 5))
		mockPool.ExpectExec("UPDATE visits SET review = NULL").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		mockPool.ExpectCommit()

		err := repo.AnonymiseAndDeleteAccount(context.Background(), "111")
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back when a step fails", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBeginTx(pgx.TxOptions{})
		mockPool.ExpectExec("UPDATE users SET is_deleted = TRUE").
			WithArgs("111").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec("UPDATE wishlist_entries SET status = 'deleted'").
			WithArgs("111").
			WillReturnError(errors.New("disk full"))
		mockPool.ExpectRollback()

		err := repo.AnonymiseAndDeleteAccount(context.Background(), "111")
		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
