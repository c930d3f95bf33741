package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/saga"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// Feed limits.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// SocialOptions tunes a SocialService. Zero values use defaults.
type SocialOptions struct {
	Attempts    int           // tries per follow/unfollow, default 3
	Backoff     time.Duration // base delay between tries
	StepTimeout time.Duration // bound on one saga run, 0 for none
	FeedLimit   int           // default feed size
	Metrics     *metrics.Metrics
}

// SocialService maintains follow edges and assembles activity feeds.
//
// Each edge is stored on both users and the two writes are independent.
// Follow and Unfollow run them as a saga: if the second write fails the
// first is undone, and the whole saga is retried while failures are
// transient. Either both sides change or neither does.
type SocialService struct {
	store   store.Store
	opts    SocialOptions
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewSocialService creates a new social service.
func NewSocialService(st store.Store, logger *slog.Logger, opts SocialOptions) *SocialService {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	return &SocialService{
		store:   st,
		opts:    opts,
		metrics: opts.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Follow makes followerID follow targetID.
// Returns a Conflict error for a self-follow or an existing edge.
func (s *SocialService) Follow(ctx context.Context, followerID, targetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if followerID == targetID {
		return domainerrors.Conflict("you cannot follow yourself")
	}

	follower, err := loadUser(ctx, s.store, followerID)
	if err != nil {
		return err
	}
	target, err := loadUser(ctx, s.store, targetID)
	if err != nil {
		return err
	}
	// A half edge left by an earlier crash is completed rather than refused.
	if follower.IsFollowing(targetID) && slices.Contains(target.Followers, followerID) {
		return domainerrors.Conflict("already following this user")
	}

	at := s.now()
	build := func() *saga.Saga {
		return s.newSaga("follow").
			AddStep("add-following",
				func(ctx context.Context) error {
					_, err := s.store.AddFollowing(ctx, followerID, targetID, at)
					return err
				},
				func(ctx context.Context) error {
					_, err := s.store.RemoveFollowing(ctx, followerID, targetID)
					return err
				}).
			AddStep("add-follower",
				func(ctx context.Context) error {
					_, err := s.store.AddFollower(ctx, targetID, followerID, at)
					return err
				}, nil)
	}
	if err := s.runWithRetry(ctx, "follow", build); err != nil {
		return err
	}

	s.logger.Info("user followed", "follower_id", followerID, "target_id", targetID)
	return nil
}

// Unfollow removes the edge from followerID to targetID. Removing an edge
// that does not exist succeeds.
func (s *SocialService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := loadUser(ctx, s.store, targetID); err != nil {
		return err
	}

	var removedFollowing bool
	at := s.now()
	build := func() *saga.Saga {
		return s.newSaga("unfollow").
			AddStep("remove-following",
				func(ctx context.Context) (err error) {
					removedFollowing, err = s.store.RemoveFollowing(ctx, followerID, targetID)
					return err
				},
				func(ctx context.Context) error {
					if !removedFollowing {
						return nil
					}
					_, err := s.store.AddFollowing(ctx, followerID, targetID, at)
					return err
				}).
			AddStep("remove-follower",
				func(ctx context.Context) error {
					_, err := s.store.RemoveFollower(ctx, targetID, followerID)
					return err
				}, nil)
	}
	if err := s.runWithRetry(ctx, "unfollow", build); err != nil {
		return err
	}

	s.logger.Info("user unfollowed", "follower_id", followerID, "target_id", targetID)
	return nil
}

func (s *SocialService) newSaga(name string) *saga.Saga {
	opts := []saga.Option{
		saga.WithCompensationHook(func(step string, err error) {
			if s.metrics != nil {
				s.metrics.RecordCompensation(step, err)
			}
			if err != nil {
				s.logger.Error("saga compensation failed", "saga", name, "step", step, "error", err)
			}
		}),
	}
	if s.opts.StepTimeout > 0 {
		opts = append(opts, saga.WithTimeout(s.opts.StepTimeout))
	}
	return saga.New(name, opts...)
}

// runWithRetry executes a fresh saga from build until it succeeds, fails
// permanently, or runs out of attempts.
func (s *SocialService) runWithRetry(ctx context.Context, op string, build func() *saga.Saga) error {
	var err error
	for attempt := 1; attempt <= s.opts.Attempts; attempt++ {
		err = build().Execute(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		if attempt == s.opts.Attempts {
			break
		}
		s.logger.Warn("edge update failed, retrying", "op", op, "attempt", attempt, "error", err)
		if werr := sleepCtx(ctx, s.opts.Backoff*time.Duration(attempt)); werr != nil {
			return werr
		}
	}
	return domainerrors.Transient(op+" could not be completed", err)
}

// ActivityFeed returns the newest unexpired activities of the users that
// userID follows. A non-positive limit uses the configured default.
func (s *SocialService) ActivityFeed(ctx context.Context, userID string, limit int) ([]*domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = s.opts.FeedLimit
	case limit > MaxFeedLimit:
		limit = MaxFeedLimit
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Following) == 0 {
		return []*domain.Activity{}, nil
	}

	acts, err := s.store.ListActivities(ctx, store.ActivityFilter{
		UserIDs:  user.Following,
		ActiveAt: s.now(),
		Limit:    limit,
	})
	if err != nil {
		return nil, storeError(err, "activity feed")
	}
	if acts == nil {
		acts = []*domain.Activity{}
	}
	return acts, nil
}
