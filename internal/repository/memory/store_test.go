package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)

func newUser(id, email string, createdAt time.Time) user.User {
	return user.User{
		ID:           id,
		Username:     "テスト",
		Birthday:     time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		Gender:       user.GenderUnspecified,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func openRecord(id, userID string, clockIn time.Time) attendance.Attendance {
	return attendance.Attendance{
		ID:        id,
		UserID:    userID,
		ClockIn:   clockIn,
		Status:    attendance.StatusClockedIn,
		CreatedAt: clockIn,
		UpdatedAt: clockIn,
	}
}

func seedUsers(t *testing.T, store *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := store.Users().Create(context.Background(), newUser(id, id+"@example.com", base))
		require.NoError(t, err)
	}
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	_, err := users.Create(ctx, newUser("u1", "a@example.com", base))
	require.NoError(t, err)

	_, err = users.Create(ctx, newUser("u2", "a@example.com", base))
	assert.ErrorIs(t, err, user.ErrUserEmailExists)

	_, err = users.Create(ctx, newUser("u2", "b@example.com", base))
	require.NoError(t, err)

	u2, err := users.GetByID(ctx, "u2")
	require.NoError(t, err)
	u2.Email = "a@example.com"
	_, err = users.Update(ctx, u2)
	assert.ErrorIs(t, err, user.ErrUserEmailExists)

	exists, err := users.ExistsByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.ExistsByEmail(ctx, "c@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_LinkGoogleAccount(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	_, err := users.Create(ctx, newUser("u1", "a@example.com", base))
	require.NoError(t, err)
	_, err = users.Create(ctx, newUser("u2", "b@example.com", base))
	require.NoError(t, err)

	linked, err := users.LinkGoogleAccount(ctx, "google-1", "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, linked.OAuthProviderID)
	assert.Equal(t, "google-1", *linked.OAuthProviderID)

	_, err = users.LinkGoogleAccount(ctx, "google-1", "b@example.com")
	assert.ErrorIs(t, err, user.ErrOAuthProviderIDExists)

	_, err = users.LinkGoogleAccount(ctx, "google-2", "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestAttendanceRepository_OneOpenRecordPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedUsers(t, store, "u1", "u2")
	records := store.Attendances()

	_, err := records.Create(ctx, openRecord("a1", "u1", base))
	require.NoError(t, err)

	_, err = records.Create(ctx, openRecord("a2", "u1", base.Add(time.Minute)))
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)

	// a different user is unaffected
	_, err = records.Create(ctx, openRecord("a3", "u2", base))
	require.NoError(t, err)

	closed, err := records.Close(ctx, "a1", base.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClockedOut, closed.Status)
	require.NotNil(t, closed.ClockOut)

	_, err = records.Close(ctx, "a1", base.Add(9*time.Hour))
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = records.Create(ctx, openRecord("a4", "u1", base.Add(24*time.Hour)))
	require.NoError(t, err)

	count, err := records.CountOpenSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAttendanceRepository_ListByUserIDOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedUsers(t, store, "u1", "u2")
	records := store.Attendances()

	out := base.Add(time.Hour)
	for _, a := range []attendance.Attendance{
		{ID: "c", UserID: "u1", ClockIn: base.Add(2 * time.Hour), ClockOut: &out, Status: attendance.StatusClockedOut},
		{ID: "b", UserID: "u1", ClockIn: base, ClockOut: &out, Status: attendance.StatusClockedOut},
		{ID: "a", UserID: "u1", ClockIn: base, ClockOut: &out, Status: attendance.StatusClockedOut},
		{ID: "z", UserID: "u2", ClockIn: base, ClockOut: &out, Status: attendance.StatusClockedOut},
	} {
		_, err := records.Create(ctx, a)
		require.NoError(t, err)
	}

	list, err := records.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = records.ListByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestAttendanceRepository_RejectsUnknownOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedUsers(t, store, "u1")

	_, err := store.Attendances().Create(ctx, openRecord("a1", "ghost", base))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	require.NoError(t, store.Users().Delete(ctx, "u1"))
	_, err = store.Attendances().Create(ctx, openRecord("a2", "u1", base))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	count, err := store.Attendances().CountOpenSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository_ListWithWorkingStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.Users().Create(ctx, newUser("u2", "b@example.com", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = store.Users().Create(ctx, newUser("u1", "a@example.com", base))
	require.NoError(t, err)
	_, err = store.Attendances().Create(ctx, openRecord("a1", "u2", base))
	require.NoError(t, err)

	members, err := store.Users().ListWithWorkingStatus(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].ID)
	assert.False(t, members[0].OnWork)
	assert.Equal(t, "u2", members[1].ID)
	assert.True(t, members[1].OnWork)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.Users().Create(ctx, newUser("u1", "a@example.com", base))
	require.NoError(t, err)
	_, err = store.Attendances().Create(ctx, openRecord("a1", "u1", base))
	require.NoError(t, err)
	require.NoError(t, store.RefreshTokens().CreateRefreshToken(ctx, "u1", "token", base.Add(time.Hour).Unix(), auth.SessionTrackingRequest{}))

	require.NoError(t, store.Users().Delete(ctx, "u1"))

	list, err := store.Attendances().ListByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _, err = store.RefreshTokens().IsRefreshTokenRevoked(ctx, "token", base)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	assert.ErrorIs(t, store.Users().Delete(ctx, "u1"), user.ErrUserNotFound)
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	tokens := NewStore().RefreshTokens()
	expiresAt := base.Add(time.Hour)

	require.NoError(t, tokens.CreateRefreshToken(ctx, "u1", "token", expiresAt.Unix(), auth.SessionTrackingRequest{UserAgent: "test"}))

	userID, revoked, err := tokens.IsRefreshTokenRevoked(ctx, "token", base)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.False(t, revoked)

	// expired tokens count as revoked
	_, revoked, err = tokens.IsRefreshTokenRevoked(ctx, "token", expiresAt)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, tokens.RevokeRefreshToken(ctx, "token", base))
	_, revoked, err = tokens.IsRefreshTokenRevoked(ctx, "token", base)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, _, err = tokens.IsRefreshTokenRevoked(ctx, "other", base)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestWithinTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tx := store.TxManager()
	errBoom := errors.New("boom")

	t.Run("rollback restores every table", func(t *testing.T) {
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := store.Users().Create(ctx, newUser("u1", "a@example.com", base))
			require.NoError(t, err)
			_, err = store.Attendances().Create(ctx, openRecord("a1", "u1", base))
			require.NoError(t, err)
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		_, err = store.Users().GetByID(ctx, "u1")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
		has, err := store.Attendances().HasOpenSession(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := store.Users().Create(ctx, newUser("u1", "a@example.com", base))
			return err
		})
		require.NoError(t, err)

		_, err = store.Users().GetByID(ctx, "u1")
		assert.NoError(t, err)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			inner := tx.WithinTransaction(ctx, func(ctx context.Context) error {
				_, err := store.Users().Create(ctx, newUser("u2", "b@example.com", base))
				return err
			})
			require.NoError(t, inner)
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		_, err = store.Users().GetByID(ctx, "u2")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestWithinTransaction_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedUsers(t, store, "u1")
	errBoom := errors.New("boom")

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.TxManager().WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := store.Users().Create(ctx, newUser("u2", "u2@example.com", base))
			close(started)
			if err != nil {
				return err
			}
			<-release
			return errBoom
		})
	}()
	<-started

	writeDone := make(chan error, 1)
	go func() {
		_, err := store.Attendances().Create(ctx, openRecord("a1", "u1", base))
		writeDone <- err
	}()

	// the clock-in waits for the open transaction
	select {
	case err := <-writeDone:
		t.Fatalf("write finished while a transaction was open: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.ErrorIs(t, <-txDone, errBoom)
	require.NoError(t, <-writeDone)

	has, err := store.Attendances().HasOpenSession(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, has)

	_, err = store.Users().GetByID(ctx, "u2")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
