package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
)

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (staff email, delivery qr_code).
var ErrDuplicate = errors.New("duplicate value")

// StaffRepository persists delivery staff accounts
type StaffRepository interface {
	Create(ctx context.Context, staff *model.StaffMember) error
	Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*model.StaffMember, error)
	GetByConfirmationToken(ctx context.Context, token string) (*model.StaffMember, error)
	GetByResetToken(ctx context.Context, token string) (*model.StaffMember, error)
	Update(ctx context.Context, staff *model.StaffMember) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DeliveryRepository persists delivery jobs. The transition methods
// apply their guard and the state change in a single conditional
// UPDATE together with the outbox event, and report false when the
// guard did not hold.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery, evt *model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	GetVisible(ctx context.Context, id, staffID uuid.UUID) (*model.Delivery, error)
	ListVisible(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error)
	ListAccepted(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error)
	Update(ctx context.Context, delivery *model.Delivery) error
	Delete(ctx context.Context, id uuid.UUID) error
	Accept(ctx context.Context, id, staffID uuid.UUID, evt *model.OutboxEvent) (bool, error)
	MarkPickedUp(ctx context.Context, id uuid.UUID, evt *model.OutboxEvent) (bool, error)
	MarkCompleted(ctx context.Context, id, staffID uuid.UUID, evt *model.OutboxEvent) (bool, error)
}

// IssueRepository persists delivery issue reports
type IssueRepository interface {
	Create(ctx context.Context, issue *model.DeliveryIssue) error
	Get(ctx context.Context, id, staffID uuid.UUID) (*model.DeliveryIssue, error)
	ListForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.DeliveryIssue, error)
}

// TokenRepository maintains the one-reusable-bearer-token-per-staff
// table with upsert semantics.
type TokenRepository interface {
	GetOrCreate(ctx context.Context, staffID uuid.UUID, token string) (string, error)
	GetStaffByToken(ctx context.Context, token string) (*model.StaffMember, error)
	DeleteByStaff(ctx context.Context, staffID uuid.UUID) error
}

// OutboxRepository persists domain events for asynchronous publishing
type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
