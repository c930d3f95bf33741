package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
)

func TestUserService_CreateUser(t *testing.T) {
	st := newTestStore(t)
	svc := NewUserService(st, testLogger())
	ctx := context.Background()

	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	u, err := svc.CreateUser(ctx, CreateUserRequest{Username: " Reader1 ", DisplayName: "Reader One"})
	require.NoError(t, err)
	assert.Equal(t, "reader1", u.Username)
	assert.Equal(t, domain.ReadingGoal{Year: 2026, TargetBooks: 12}, u.ReadingGoal)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "reader1"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "has space"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reader One", got.Name())

	_, err = svc.GetUser(ctx, "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUserService_Profile(t *testing.T) {
	st := newTestStore(t)
	svc := NewUserService(st, testLogger())
	ctx := context.Background()

	createTestUser(t, st, "user-1")
	createTestUser(t, st, "user-2")
	createTestUser(t, st, "user-3")
	now := time.Now()
	_, err := st.AddFollowing(ctx, "user-1", "user-2", now)
	require.NoError(t, err)
	_, err = st.AddFollower(ctx, "user-1", "user-3", now)
	require.NoError(t, err)
	_, err = st.AddFollower(ctx, "user-1", "user-2", now)
	require.NoError(t, err)

	shelves := []domain.Shelf{domain.ShelfRead, domain.ShelfRead, domain.ShelfCurrentlyReading, domain.ShelfWantToRead}
	for i, shelf := range shelves {
		require.NoError(t, st.CreateUserBook(ctx, &domain.UserBook{
			ID:        "ub-" + string(rune('a'+i)),
			UserID:    "user-1",
			BookID:    "book-" + string(rune('a'+i)),
			Shelf:     shelf,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	p, err := svc.Profile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.BooksRead)
	assert.Equal(t, 1, p.BooksReading)
	assert.Equal(t, 2, p.FollowerCount)
	assert.Equal(t, 1, p.FollowingCount)

	_, err = svc.Profile(ctx, "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUserService_UpdateReadingGoal(t *testing.T) {
	st := newTestStore(t)
	svc := NewUserService(st, testLogger())
	ctx := context.Background()

	createTestUser(t, st, "user-1")
	svc.now = func() time.Time { return time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC) }

	target := 30
	goal, err := svc.UpdateReadingGoal(ctx, "user-1", UpdateReadingGoalRequest{TargetBooks: &target})
	require.NoError(t, err)
	assert.Equal(t, domain.ReadingGoal{Year: 2027, TargetBooks: 30}, *goal)

	year := 2028
	goal, err = svc.UpdateReadingGoal(ctx, "user-1", UpdateReadingGoalRequest{Year: &year})
	require.NoError(t, err)
	assert.Equal(t, domain.ReadingGoal{Year: 2028, TargetBooks: domain.DefaultGoalTarget}, *goal)

	stored, err := st.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, *goal, stored.ReadingGoal)

	zero := 0
	_, err = svc.UpdateReadingGoal(ctx, "user-1", UpdateReadingGoalRequest{TargetBooks: &zero})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = svc.UpdateReadingGoal(ctx, "user-missing", UpdateReadingGoalRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
