package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
)

type issueRepository struct {
	BaseRepository
}

func NewIssueRepository(base BaseRepository) repository.IssueRepository {
	return &issueRepository{base}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.DeliveryIssue) error {
	query := `
		INSERT INTO delivery_issues (
			id, delivery_id, reported_by, description, photo_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	issue.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		issue.ID,
		issue.DeliveryID,
		issue.ReportedBy,
		issue.Description,
		issue.PhotoURL,
		issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery issue: %w", err)
	}
	return nil
}

// Get returns an issue only when its owning delivery is assigned to
// the given staff member.
func (r *issueRepository) Get(ctx context.Context, id, staffID uuid.UUID) (*model.DeliveryIssue, error) {
	query := `
		SELECT i.* FROM delivery_issues i
		JOIN deliveries d ON d.id = i.delivery_id
		WHERE i.id = $1 AND d.staff_id = $2
	`

	var issue model.DeliveryIssue
	if err := r.db.GetContext(ctx, &issue, query, id, staffID); err != nil {
		return nil, fmt.Errorf("failed to get delivery issue: %w", err)
	}
	return &issue, nil
}

func (r *issueRepository) ListForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.DeliveryIssue, error) {
	query := `
		SELECT i.* FROM delivery_issues i
		JOIN deliveries d ON d.id = i.delivery_id
		WHERE d.staff_id = $1
		ORDER BY i.created_at DESC
	`

	var issues []*model.DeliveryIssue
	if err := r.db.SelectContext(ctx, &issues, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list delivery issues: %w", err)
	}
	return issues, nil
}
