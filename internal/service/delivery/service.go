package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
	"github.com/bloodlink/delivery-api/internal/service/event"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Service struct {
	repo     repository.DeliveryRepository
	validate *validator.Validate
}

func NewService(repo repository.DeliveryRepository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

// Create registers a new delivery job. Jobs always start pending and
// unassigned; creation never picks a staff member.
func (s *Service) Create(ctx context.Context, req *model.CreateDeliveryRequest) (*model.Delivery, error) {
	if err := s.validateLocation("pickup_location", req.PickupLocation); err != nil {
		return nil, err
	}
	if err := s.validateLocation("dropoff_location", req.DropoffLocation); err != nil {
		return nil, err
	}

	units := req.BloodUnits
	if units == 0 {
		units = 1
	}
	if units < 0 {
		return nil, apperrors.Validation("blood_units must be positive", nil)
	}

	delivery := &model.Delivery{
		Base:            model.Base{ID: uuid.New()},
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupTime:      req.PickupTime,
		BloodType:       req.BloodType,
		BloodUnits:      units,
		Status:          model.DeliveryStatusPending,
		QRCode:          req.QRCode,
	}

	evt, err := event.New(model.EventDeliveryCreated, deliveryEventPayload(delivery))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, delivery, evt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation("qr_code already in use", err)
		}
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}
	return delivery, nil
}

// Get returns a delivery subject to the visibility rule: callers see
// only unassigned jobs and jobs assigned to themselves.
func (s *Service) Get(ctx context.Context, id, staffID uuid.UUID) (*model.Delivery, error) {
	delivery, err := s.repo.GetVisible(ctx, id, staffID)
	if err != nil {
		return nil, apperrors.NotFound("delivery")
	}
	return delivery, nil
}

func (s *Service) List(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error) {
	deliveries, err := s.repo.ListVisible(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

// ListAccepted returns the caller's jobs still in flight
func (s *Service) ListAccepted(ctx context.Context, staffID uuid.UUID) ([]*model.Delivery, error) {
	deliveries, err := s.repo.ListAccepted(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted deliveries: %w", err)
	}
	return deliveries, nil
}

// Update patches route, schedule and cargo fields of a visible job.
// Location patches merge field by field over the stored value; the
// merged location must still carry address, lat and lon.
func (s *Service) Update(ctx context.Context, id, staffID uuid.UUID, req *model.UpdateDeliveryRequest) (*model.Delivery, error) {
	delivery, err := s.repo.GetVisible(ctx, id, staffID)
	if err != nil {
		return nil, apperrors.NotFound("delivery")
	}

	if req.PickupLocation != nil {
		delivery.PickupLocation = req.PickupLocation.Apply(delivery.PickupLocation)
		if err := s.validateLocation("pickup_location", delivery.PickupLocation); err != nil {
			return nil, err
		}
	}
	if req.DropoffLocation != nil {
		delivery.DropoffLocation = req.DropoffLocation.Apply(delivery.DropoffLocation)
		if err := s.validateLocation("dropoff_location", delivery.DropoffLocation); err != nil {
			return nil, err
		}
	}
	if req.PickupTime != nil {
		delivery.PickupTime = *req.PickupTime
	}
	if req.BloodType != nil {
		delivery.BloodType = *req.BloodType
	}
	if req.BloodUnits != nil {
		if *req.BloodUnits <= 0 {
			return nil, apperrors.Validation("blood_units must be positive", nil)
		}
		delivery.BloodUnits = *req.BloodUnits
	}

	if err := s.repo.Update(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	return delivery, nil
}

// Delete removes a visible job; its issues go with it by cascade
func (s *Service) Delete(ctx context.Context, id, staffID uuid.UUID) error {
	if _, err := s.repo.GetVisible(ctx, id, staffID); err != nil {
		return apperrors.NotFound("delivery")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}
	return nil
}

// AcceptJob moves a pending, unassigned job to in_progress and assigns
// the caller. The guard is applied atomically in the store, so of two
// concurrent callers exactly one wins; the other observes the guard
// failure below.
func (s *Service) AcceptJob(ctx context.Context, id, staffID uuid.UUID) (*model.Delivery, error) {
	evt, err := event.New(model.EventDeliveryAccepted, map[string]interface{}{
		"delivery_id": id,
		"staff_id":    staffID,
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Accept(ctx, id, staffID, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to accept delivery: %w", err)
	}
	if !ok {
		return nil, s.transitionError(ctx, id, "accept_job")
	}

	delivery, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload delivery: %w", err)
	}
	return delivery, nil
}

// ScanQR confirms physical pickup: the job must be in_progress and the
// scanned code must match the job's qr_code.
func (s *Service) ScanQR(ctx context.Context, id, staffID uuid.UUID, code string) (*model.Delivery, error) {
	delivery, err := s.repo.GetVisible(ctx, id, staffID)
	if err != nil {
		return nil, apperrors.NotFound("delivery")
	}

	if delivery.QRCode != code {
		return nil, apperrors.InvalidTransition("invalid QR code", nil)
	}

	evt, err := event.New(model.EventDeliveryPickedUp, map[string]interface{}{
		"delivery_id": delivery.ID,
		"qr_code":     delivery.QRCode,
		"staff_id":    staffID,
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.MarkPickedUp(ctx, id, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark delivery picked up: %w", err)
	}
	if !ok {
		return nil, s.transitionError(ctx, id, "scan_qr")
	}

	delivery.Status = model.DeliveryStatusPickedUp
	return delivery, nil
}

// ConfirmDelivery completes a picked-up job; only the assigned staff
// member may confirm.
func (s *Service) ConfirmDelivery(ctx context.Context, id, staffID uuid.UUID) (*model.Delivery, error) {
	evt, err := event.New(model.EventDeliveryCompleted, map[string]interface{}{
		"delivery_id": id,
		"staff_id":    staffID,
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.MarkCompleted(ctx, id, staffID, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to complete delivery: %w", err)
	}
	if !ok {
		return nil, s.transitionError(ctx, id, "confirm_delivery")
	}

	delivery, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload delivery: %w", err)
	}
	return delivery, nil
}

// transitionError reports why a guarded transition did not apply,
// carrying the state observed after the failed attempt.
func (s *Service) transitionError(ctx context.Context, id uuid.UUID, action string) error {
	delivery, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NotFound("delivery")
	}

	msg := fmt.Sprintf("%s not allowed: delivery is %s", action, delivery.Status)
	if action == "accept_job" && delivery.StaffID != nil {
		msg = fmt.Sprintf("%s not allowed: delivery is %s and already assigned", action, delivery.Status)
	}
	return apperrors.InvalidTransition(msg, nil)
}

func (s *Service) validateLocation(field string, loc model.Location) error {
	if err := s.validate.Struct(loc); err != nil {
		return apperrors.Validation(
			fmt.Sprintf("%s must contain address, lat and lon", field), err)
	}
	return nil
}

func deliveryEventPayload(d *model.Delivery) map[string]interface{} {
	return map[string]interface{}{
		"delivery_id": d.ID,
		"qr_code":     d.QRCode,
		"status":      d.Status,
		"staff_id":    d.StaffID,
	}
}
