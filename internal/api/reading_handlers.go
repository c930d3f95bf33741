package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

func (s *Server) registerReadingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getReadingStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/stats",
		Summary:     "Get reading stats",
		Description: "Returns the acting user's statistics for the current calendar year",
		Tags:        []string{"Reading"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleGetReadingStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/recommendations",
		Summary:     "Get recommendations",
		Description: "Returns personalized picks for readers with three or more finished books, discovery picks otherwise",
		Tags:        []string{"Reading"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleGetRecommendations)
}

type ReadingStatsOutput struct {
	Body *domain.ReadingStats
}

type GetRecommendationsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"50" doc:"Max personalized picks (default 12)"`
}

type RecommendationsOutput struct {
	Body *domain.Recommendations
}

func (s *Server) handleGetReadingStats(ctx context.Context, _ *struct{}) (*ReadingStatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.ReadingStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ReadingStatsOutput{Body: stats}, nil
}

func (s *Server) handleGetRecommendations(ctx context.Context, input *GetRecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.services.Recommendation.Recommend(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RecommendationsOutput{Body: recs}, nil
}
