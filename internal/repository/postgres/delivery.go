package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
)

type deliveryRepository struct {
	BaseRepository
}

func NewDeliveryRepository(base BaseRepository) repository.DeliveryRepository {
	return &deliveryRepository{base}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery, evt *model.OutboxEvent) error {
	query := `
		INSERT INTO deliveries (
			id, staff_id, pickup_location, dropoff_location, pickup_time,
			blood_type, blood_units, status, qr_code, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	delivery.CreatedAt = time.Now()
	delivery.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			delivery.ID,
			delivery.StaffID,
			delivery.PickupLocation,
			delivery.DropoffLocation,
			delivery.PickupTime,
			delivery.BloodType,
			delivery.BloodUnits,
			delivery.Status,
			delivery.QRCode,
			delivery.CreatedAt,
			delivery.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("qr_code already in use: %w", repository.ErrDuplicate)
			}
			return fmt.Errorf("failed to create delivery: %w", err)
		}
		return insertOutboxTx(ctx, tx, evt)
	})
}

func (r *deliveryRepository) Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	query := `SELECT * FROM deliveries WHERE id = $1`

	var delivery model.Delivery
	if err := r.db.GetContext(ctx, &delivery, query, id); err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &delivery, nil
}

// GetVisible fetches a delivery only if it is unassigned or assigned
// to the given staff member.
func (r *deliveryRepository) GetVisible(ctx context.Context, id, staffID uuid.UUID) (*model.Delivery, error) {
	query := `
		SELECT * FROM deliveries
		WHERE id = $1 AND (staff_id = $2 OR staff_id IS NULL)
	`

	var delivery model.Delivery
	if err := r.db.GetContext(ctx, &delivery, query, id, staffID); err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) ListVisible(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error) {
	query := `
		SELECT * FROM deliveries
		WHERE staff_id = $1 OR staff_id IS NULL
		ORDER BY created_at DESC
	`

	var deliveries []*model.Delivery
	if err := r.db.SelectContext(ctx, &deliveries, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *deliveryRepository) ListAccepted(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error) {
	query := `
		SELECT * FROM deliveries
		WHERE staff_id = $1 AND status IN ($2, $3)
		ORDER BY pickup_time ASC
	`

	var deliveries []*model.Delivery
	if err := r.db.SelectContext(ctx, &deliveries, query, staffID,
		model.DeliveryStatusInProgress, model.DeliveryStatusPickedUp); err != nil {
		return nil, fmt.Errorf("failed to list accepted deliveries: %w", err)
	}
	return deliveries, nil
}

// Update writes route, schedule and cargo fields only. Assignment,
// status and qr_code are managed by the transition methods.
func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	query := `
		UPDATE deliveries SET
			pickup_location = $1,
			dropoff_location = $2,
			pickup_time = $3,
			blood_type = $4,
			blood_units = $5,
			updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		delivery.PickupLocation,
		delivery.DropoffLocation,
		delivery.PickupTime,
		delivery.BloodType,
		delivery.BloodUnits,
		time.Now(),
		delivery.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delivery not found")
	}
	return nil
}

func (r *deliveryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Issues referencing the delivery are removed by FK cascade
	query := `DELETE FROM deliveries WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delivery not found")
	}
	return nil
}

// Accept assigns a pending, unassigned delivery to the staff member.
// The guard runs inside the UPDATE itself, so of two concurrent
// callers exactly one sees a row change.
func (r *deliveryRepository) Accept(ctx context.Context, id, staffID uuid.UUID, evt *model.OutboxEvent) (bool, error) {
	query := `
		UPDATE deliveries
		SET status = $1, staff_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4 AND staff_id IS NULL
	`
	return r.transition(ctx, evt, query,
		model.DeliveryStatusInProgress, staffID, id, model.DeliveryStatusPending)
}

func (r *deliveryRepository) MarkPickedUp(ctx context.Context, id uuid.UUID, evt *model.OutboxEvent) (bool, error) {
	query := `
		UPDATE deliveries
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	return r.transition(ctx, evt, query,
		model.DeliveryStatusPickedUp, id, model.DeliveryStatusInProgress)
}

func (r *deliveryRepository) MarkCompleted(ctx context.Context, id, staffID uuid.UUID, evt *model.OutboxEvent) (bool, error) {
	query := `
		UPDATE deliveries
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND staff_id = $4
	`
	return r.transition(ctx, evt, query,
		model.DeliveryStatusCompleted, id, model.DeliveryStatusPickedUp, staffID)
}

// transition runs a guarded status UPDATE and the outbox insert in one
// transaction. A zero row count means the guard failed; nothing is
// written in that case.
func (r *deliveryRepository) transition(ctx context.Context, evt *model.OutboxEvent, query string, args ...interface{}) (bool, error) {
	applied := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to apply transition: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}

		applied = true
		return insertOutboxTx(ctx, tx, evt)
	})
	return applied, err
}
