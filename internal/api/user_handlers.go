package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Create user",
		Description:   "Registers a reader with the default reading goal for the current year",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the acting user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user profile",
		Description: "Returns a user with reading and follow counts",
		Tags:        []string{"Users"},
	}, s.handleGetUserProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReadingGoal",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me/goal",
		Summary:     "Update reading goal",
		Description: "Replaces the acting user's reading goal. Omitted fields default to the current year and 12 books",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleUpdateReadingGoal)
}

// === DTOs ===

type CreateUserRequest struct {
	Username    string `json:"username" minLength:"3" maxLength:"30" doc:"Unique username, letters and digits"`
	DisplayName string `json:"display_name,omitempty" maxLength:"100" doc:"Display name"`
	Bio         string `json:"bio,omitempty" maxLength:"500" doc:"Short biography"`
}

type CreateUserInput struct {
	Body CreateUserRequest
}

type UserOutput struct {
	Body *domain.User
}

type ProfileOutput struct {
	Body *domain.Profile
}

type UpdateReadingGoalInput struct {
	Body service.UpdateReadingGoalRequest
}

type ReadingGoalOutput struct {
	Body *domain.ReadingGoal
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	u, err := s.services.User.CreateUser(ctx, service.CreateUserRequest{
		Username:    input.Body.Username,
		DisplayName: input.Body.DisplayName,
		Bio:         input.Body.Bio,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: u}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, userID)
}

func (s *Server) handleGetUserProfile(ctx context.Context, input *UserIDInput) (*ProfileOutput, error) {
	return s.profile(ctx, input.ID)
}

func (s *Server) profile(ctx context.Context, userID string) (*ProfileOutput, error) {
	p, err := s.services.User.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: p}, nil
}

func (s *Server) handleUpdateReadingGoal(ctx context.Context, input *UpdateReadingGoalInput) (*ReadingGoalOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	goal, err := s.services.User.UpdateReadingGoal(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ReadingGoalOutput{Body: goal}, nil
}
