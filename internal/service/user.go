package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/id"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/validation"
)

// UserService manages reader accounts and reading goals.
type UserService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(st store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:     st,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateUserRequest contains fields for registering a reader.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Bio         string `json:"bio" validate:"max=500"`
}

// CreateUser registers a reader with the default reading goal for the
// current year. Returns a Conflict error if the username is taken.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := s.now()
	u := &domain.User{
		ID:          userID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		ReadingGoal: domain.ReadingGoal{Year: now.Year(), TargetBooks: domain.DefaultGoalTarget},
		Followers:   []string{},
		Following:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("username %q is taken", req.Username)
		}
		return nil, storeError(err, "user")
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// GetUser returns a single user.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return loadUser(ctx, s.store, userID)
}

// Profile returns a user with their shelf and follow counts.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	p := &domain.Profile{
		User:           *user,
		FollowerCount:  len(user.Followers),
		FollowingCount: len(user.Following),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.BooksRead, err = s.store.CountUserBooks(gctx, store.LedgerFilter{UserID: userID, Shelf: domain.ShelfRead})
		return err
	})
	g.Go(func() (err error) {
		p.BooksReading, err = s.store.CountUserBooks(gctx, store.LedgerFilter{UserID: userID, Shelf: domain.ShelfCurrentlyReading})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "profile")
	}
	return p, nil
}

// UpdateReadingGoalRequest sets the yearly goal. Nil fields fall back to
// the current year and domain.DefaultGoalTarget.
type UpdateReadingGoalRequest struct {
	Year        *int `json:"year,omitempty" validate:"omitempty,gte=1900,lte=9999"`
	TargetBooks *int `json:"target_books,omitempty" validate:"omitempty,gte=1,lte=10000"`
}

// UpdateReadingGoal replaces the user's reading goal.
func (s *UserService) UpdateReadingGoal(ctx context.Context, userID string, req UpdateReadingGoalRequest) (*domain.ReadingGoal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := domain.ReadingGoal{Year: now.Year(), TargetBooks: domain.DefaultGoalTarget}
	if req.Year != nil {
		goal.Year = *req.Year
	}
	if req.TargetBooks != nil {
		goal.TargetBooks = *req.TargetBooks
	}
	user.ReadingGoal = goal
	user.UpdatedAt = now

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}

	s.logger.Info("reading goal updated", "user_id", userID, "year", goal.Year, "target", goal.TargetBooks)
	return &goal, nil
}
