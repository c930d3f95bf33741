package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews",
		Summary:       "Create review",
		Description:   "Submits a review for moderation. It counts towards the book's rating once approved",
		Tags:          []string{"Reviews"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteReview",
		Method:        http.MethodDelete,
		Path:          "/api/v1/reviews/{id}",
		Summary:       "Delete review",
		Description:   "Deletes one of the acting user's reviews",
		Tags:          []string{"Reviews"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/reviews",
		Summary:     "Get user reviews",
		Description: "Returns every review a user has written, newest first",
		Tags:        []string{"Reviews", "Users"},
	}, s.handleGetUserReviews)
}

// === DTOs ===

type CreateReviewInput struct {
	Body service.CreateReviewRequest
}

type ReviewOutput struct {
	Body *domain.Review
}

type ReviewIDInput struct {
	ID string `path:"id" doc:"Review ID"`
}

type UserIDInput struct {
	ID string `path:"id" doc:"User ID"`
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.CreateReview(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.DeleteReview(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetUserReviews(ctx context.Context, input *UserIDInput) (*ReviewsOutput, error) {
	reviews, err := s.services.Review.UserReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewsOutput{Body: ReviewsResponse{Reviews: reviews}}, nil
}
