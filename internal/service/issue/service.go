package issue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Service struct {
	repo         repository.IssueRepository
	deliveryRepo repository.DeliveryRepository
}

func NewService(repo repository.IssueRepository, deliveryRepo repository.DeliveryRepository) *Service {
	return &Service{
		repo:         repo,
		deliveryRepo: deliveryRepo,
	}
}

// Report files an issue against a delivery the caller can see. A
// delivery outside the caller's visibility reads as not found, the
// same as one that does not exist.
func (s *Service) Report(ctx context.Context, staffID uuid.UUID, req *model.ReportIssueRequest) (*model.DeliveryIssue, error) {
	if _, err := s.deliveryRepo.GetVisible(ctx, req.DeliveryID, staffID); err != nil {
		return nil, apperrors.NotFound("delivery")
	}

	issue := &model.DeliveryIssue{
		ID:          uuid.New(),
		DeliveryID:  req.DeliveryID,
		ReportedBy:  staffID,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	}

	if err := s.repo.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to create delivery issue: %w", err)
	}
	return issue, nil
}

// Get returns an issue whose owning delivery is assigned to the caller
func (s *Service) Get(ctx context.Context, id, staffID uuid.UUID) (*model.DeliveryIssue, error) {
	issue, err := s.repo.Get(ctx, id, staffID)
	if err != nil {
		return nil, apperrors.NotFound("delivery issue")
	}
	return issue, nil
}

// ListForCaller returns issues on the caller's own jobs only
func (s *Service) ListForCaller(ctx context.Context, staffID uuid.UUID) ([]*model.DeliveryIssue, error) {
	issues, err := s.repo.ListForStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery issues: %w", err)
	}
	return issues, nil
}
