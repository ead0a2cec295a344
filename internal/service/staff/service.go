package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/email"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
	"github.com/bloodlink/delivery-api/internal/service/event"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
	"github.com/bloodlink/delivery-api/pkg/logger"
	"github.com/bloodlink/delivery-api/pkg/security"
)

const dobLayout = "2006-01-02"

// Lookup failures for confirmation and reset tokens collapse into one
// message so callers cannot probe which tokens ever existed.
const invalidTokenMsg = "invalid token"

type Service struct {
	repo     repository.StaffRepository
	hasher   security.PasswordHasher
	emailSvc email.Service
	events   *event.Service
	logger   *logger.Logger
}

func NewService(repo repository.StaffRepository, hasher security.PasswordHasher,
	emailSvc email.Service, events *event.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		emailSvc: emailSvc,
		events:   events,
		logger:   logger,
	}
}

// Register creates an inactive staff account with a fresh confirmation
// token and dispatches the confirmation email off the request path.
func (s *Service) Register(ctx context.Context, req *model.RegisterStaffRequest) (*model.StaffMember, error) {
	existing, _ := s.repo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, apperrors.Validation("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("invalid password", err)
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobLayout, req.DOB)
		if err != nil {
			return nil, apperrors.Validation("dob must be formatted YYYY-MM-DD", err)
		}
		dob = &parsed
	}

	token := uuid.New().String()
	gender := req.Gender
	if gender == "" {
		gender = model.GenderOther
	}

	staff := &model.StaffMember{
		Base:              model.Base{ID: uuid.New()},
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
		Gender:            gender,
		LicenseNumber:     req.LicenseNumber,
		VehicleType:       req.VehicleType,
		VehicleNumber:     req.VehicleNumber,
		DOB:               dob,
		EmailConfirmed:    false,
		ConfirmationToken: &token,
		IsActive:          false,
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}

	if err := s.events.Emit(ctx, model.EventStaffRegistered, map[string]interface{}{
		"staff_id": staff.ID,
		"email":    staff.Email,
	}); err != nil {
		s.logger.Error(err, "failed to emit registration event")
	}

	go func() {
		if err := s.emailSvc.SendConfirmation(staff.Email, token); err != nil {
			s.logger.Error(err, "failed to send confirmation email", "email", staff.Email)
		}
	}()

	return staff, nil
}

// ConfirmEmail consumes a confirmation token, activating the account.
// A consumed token and a token that never existed fail identically.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Validation(invalidTokenMsg, nil)
	}

	staff, err := s.repo.GetByConfirmationToken(ctx, token)
	if err != nil {
		return apperrors.Validation(invalidTokenMsg, nil)
	}

	staff.EmailConfirmed = true
	staff.IsActive = true
	staff.ConfirmationToken = nil

	if err := s.repo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to activate staff member: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	staff, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("staff member")
	}
	return staff, nil
}

// UpdateSelf applies a partial profile update to the calling identity.
// Activation flags, email and credentials are not reachable here.
func (s *Service) UpdateSelf(ctx context.Context, id uuid.UUID, req *model.UpdateStaffRequest) (*model.StaffMember, error) {
	staff, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("staff member")
	}

	if req.FirstName != nil {
		staff.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		staff.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		staff.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		staff.Address = *req.Address
	}
	if req.Gender != nil {
		staff.Gender = *req.Gender
	}
	if req.LicenseNumber != nil {
		staff.LicenseNumber = *req.LicenseNumber
	}
	if req.VehicleType != nil {
		staff.VehicleType = *req.VehicleType
	}
	if req.VehicleNumber != nil {
		staff.VehicleNumber = *req.VehicleNumber
	}
	if req.DOB != nil {
		parsed, err := time.Parse(dobLayout, *req.DOB)
		if err != nil {
			return nil, apperrors.Validation("dob must be formatted YYYY-MM-DD", err)
		}
		staff.DOB = &parsed
	}

	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}
	return staff, nil
}

// RequestPasswordReset stores a fresh reset token and mails it out.
// Unknown emails and mail-channel failures both report success so the
// endpoint is not an account oracle. The token write is never rolled
// back by a send failure.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	staff, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil
	}

	token := uuid.New().String()
	staff.ResetToken = &token
	if err := s.repo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(staff.Email, token); err != nil {
		s.logger.Error(err, "failed to send reset email", "email", staff.Email)
	}
	return nil
}

// ConfirmPasswordReset consumes a reset token and installs the new
// credential. Same non-distinguishing failure policy as ConfirmEmail.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.Validation(invalidTokenMsg, nil)
	}

	staff, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return apperrors.Validation(invalidTokenMsg, nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Validation("invalid password", err)
	}

	staff.PasswordHash = hash
	staff.ResetToken = nil

	if err := s.repo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
