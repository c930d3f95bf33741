package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "followUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users/{id}/follow",
		Summary:       "Follow user",
		Description:   "Makes the acting user follow another user",
		Tags:          []string{"Social"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleFollowUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unfollowUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/users/{id}/follow",
		Summary:       "Unfollow user",
		Description:   "Removes the follow edge between the acting user and another user",
		Tags:          []string{"Social"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnfollowUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getActivityFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Get activity feed",
		Description: "Returns recent unexpired activity of followed users, newest first",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleGetActivityFeed)
}

type GetActivityFeedInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" doc:"Max activities (default 20)"`
}

type ActivityFeedResponse struct {
	Activities []*domain.Activity `json:"activities"`
}

type ActivityFeedOutput struct {
	Body ActivityFeedResponse
}

func (s *Server) handleFollowUser(ctx context.Context, input *UserIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Social.Follow(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleUnfollowUser(ctx context.Context, input *UserIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Social.Unfollow(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetActivityFeed(ctx context.Context, input *GetActivityFeedInput) (*ActivityFeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	acts, err := s.services.Social.ActivityFeed(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &ActivityFeedOutput{Body: ActivityFeedResponse{Activities: acts}}, nil
}
