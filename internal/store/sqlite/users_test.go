package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func makeTestUser(id string) *domain.User {
	return &domain.User{
		ID:          id,
		Username:    "u_" + id,
		DisplayName: "User " + id,
		ReadingGoal: domain.ReadingGoal{Year: 2026, TargetBooks: domain.DefaultGoalTarget},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func TestUsers_CreateAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := makeTestUser("user-2")
	dup.Username = "u_user-1"
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate username: got %v", err)
	}

	u, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(u.Following) != 0 || len(u.Followers) != 0 {
		t.Errorf("new user has edges: %+v", u)
	}

	u.ReadingGoal = domain.ReadingGoal{Year: 2027, TargetBooks: 30}
	u.UpdatedAt = baseTime.Add(time.Hour)
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	u, _ = s.GetUser(ctx, "user-1")
	if u.ReadingGoal.Year != 2027 || u.ReadingGoal.TargetBooks != 30 {
		t.Errorf("goal = %+v", u.ReadingGoal)
	}

	if n, _ := s.CountUsers(ctx); n != 1 {
		t.Errorf("CountUsers = %d", n)
	}
	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser(missing) = %v", err)
	}
}

func TestUsers_EdgesReportChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"user-1", "user-2"} {
		if err := s.CreateUser(ctx, makeTestUser(id)); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	added, err := s.AddFollowing(ctx, "user-1", "user-2", baseTime)
	if err != nil || !added {
		t.Fatalf("AddFollowing = %v, %v", added, err)
	}
	added, err = s.AddFollowing(ctx, "user-1", "user-2", baseTime)
	if err != nil || added {
		t.Fatalf("repeat AddFollowing = %v, %v; want false", added, err)
	}
	if added, err := s.AddFollower(ctx, "user-2", "user-1", baseTime); err != nil || !added {
		t.Fatalf("AddFollower = %v, %v", added, err)
	}

	u1, _ := s.GetUser(ctx, "user-1")
	u2, _ := s.GetUser(ctx, "user-2")
	if !u1.IsFollowing("user-2") || len(u2.Followers) != 1 || u2.Followers[0] != "user-1" {
		t.Fatalf("edges not loaded: %+v / %+v", u1, u2)
	}

	removed, err := s.RemoveFollowing(ctx, "user-1", "user-2")
	if err != nil || !removed {
		t.Fatalf("RemoveFollowing = %v, %v", removed, err)
	}
	removed, err = s.RemoveFollowing(ctx, "user-1", "user-2")
	if err != nil || removed {
		t.Fatalf("repeat RemoveFollowing = %v, %v; want false", removed, err)
	}
	if removed, err := s.RemoveFollower(ctx, "user-2", "user-1"); err != nil || !removed {
		t.Fatalf("RemoveFollower = %v, %v", removed, err)
	}
}
