package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryIssue is a free-text problem report attached to a delivery.
// Issues are never updated and are removed only by cascade when the
// owning delivery is deleted.
type DeliveryIssue struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DeliveryID  uuid.UUID `json:"delivery" db:"delivery_id"`
	ReportedBy  uuid.UUID `json:"reported_by" db:"reported_by"`
	Description string    `json:"description" db:"description"`
	PhotoURL    *string   `json:"photo,omitempty" db:"photo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ReportIssueRequest represents issue creation parameters
type ReportIssueRequest struct {
	DeliveryID  uuid.UUID `json:"delivery" binding:"required"`
	Description string    `json:"description" binding:"required"`
	PhotoURL    *string   `json:"photo"`
}
