package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

// Moderator routes. There is no role model; any identified caller may use them.
func (s *Server) registerAdminRoutes() {
	adminSecurity := []map[string][]string{{"user": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "adminOverview",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/overview",
		Summary:     "Catalog overview",
		Description: "Totals, books per genre and the top rated and most shelved books",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminOverview)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/reviews",
		Summary:     "List reviews by status",
		Description: "Returns the moderation queue, pending reviews unless another status is given",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminModerateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/reviews/{id}",
		Summary:     "Moderate review",
		Description: "Sets a review's moderation status and recomputes the book's rating",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminModerateReview)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminRemoveReview",
		Method:        http.MethodDelete,
		Path:          "/api/v1/admin/reviews/{id}",
		Summary:       "Remove review",
		Description:   "Deletes any review regardless of author",
		Tags:          []string{"Admin"},
		Security:      adminSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleAdminRemoveReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminReindex",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reindex",
		Summary:     "Rebuild search index",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminReindex)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminReconcile",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/reconcile",
		Summary:       "Reconcile aggregates",
		Description:   "Recomputes rating and shelf aggregates for every book",
		Tags:          []string{"Admin"},
		Security:      adminSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleAdminReconcile)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDrainQueue",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/queue/drain",
		Summary:     "Drain recompute queue",
		Description: "Runs queued aggregate recomputes now instead of waiting for the next sweep",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminDrainQueue)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminPurgeActivities",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/activities/purge",
		Summary:     "Purge expired activities",
		Tags:        []string{"Admin"},
		Security:    adminSecurity,
	}, s.handleAdminPurgeActivities)
}

// === DTOs ===

type AdminOverviewOutput struct {
	Body *domain.CatalogOverview
}

type AdminListReviewsInput struct {
	Status string `query:"status" enum:"pending,approved,rejected" doc:"Moderation status (default pending)"`
	BookID string `query:"book_id" doc:"Only reviews of this book"`
}

type ModerateReviewRequest struct {
	Status domain.ReviewStatus `json:"status" enum:"pending,approved,rejected" doc:"New moderation status"`
}

type AdminModerateReviewInput struct {
	ID   string `path:"id" doc:"Review ID"`
	Body ModerateReviewRequest
}

type CountResponse struct {
	Count int `json:"count"`
}

type CountOutput struct {
	Body CountResponse
}

// === Handlers ===

func (s *Server) requireCaller(ctx context.Context) error {
	_, err := GetUserID(ctx)
	return err
}

func (s *Server) handleAdminOverview(ctx context.Context, _ *struct{}) (*AdminOverviewOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	ov, err := s.services.Catalog.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminOverviewOutput{Body: ov}, nil
}

func (s *Server) handleAdminListReviews(ctx context.Context, input *AdminListReviewsInput) (*ReviewsOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	status := domain.ReviewPending
	if input.Status != "" {
		status = domain.ReviewStatus(input.Status)
	}

	reviews, err := s.services.Review.ReviewsByStatus(ctx, status, input.BookID)
	if err != nil {
		return nil, err
	}
	return &ReviewsOutput{Body: ReviewsResponse{Reviews: reviews}}, nil
}

func (s *Server) handleAdminModerateReview(ctx context.Context, input *AdminModerateReviewInput) (*ReviewOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	r, err := s.services.Review.ModerateReview(ctx, input.ID, input.Body.Status)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: r}, nil
}

func (s *Server) handleAdminRemoveReview(ctx context.Context, input *ReviewIDInput) (*struct{}, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if err := s.services.Review.RemoveReview(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAdminReindex(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	n, err := s.services.Catalog.Reindex(ctx)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleAdminReconcile(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	if err := s.services.Recompute.Reconcile(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAdminDrainQueue(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	n, err := s.services.Recompute.Drain(ctx)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleAdminPurgeActivities(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	if err := s.requireCaller(ctx); err != nil {
		return nil, err
	}
	n, err := s.services.Activity.PurgeExpired(ctx)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}
