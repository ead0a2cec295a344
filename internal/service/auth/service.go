package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
	"github.com/bloodlink/delivery-api/pkg/security"
)

// One generic failure for unknown email, wrong password and inactive
// accounts; the distinction must not leak to the caller.
const invalidCredentialsMsg = "invalid credentials"

type Service struct {
	staffRepo repository.StaffRepository
	tokenRepo repository.TokenRepository
	hasher    security.PasswordHasher
}

func NewService(staffRepo repository.StaffRepository, tokenRepo repository.TokenRepository,
	hasher security.PasswordHasher) *Service {
	return &Service{
		staffRepo: staffRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
	}
}

// Login verifies the credential and returns the caller's single
// reusable bearer token. Re-login is idempotent: the candidate token
// is only minted when the identity has no token row yet.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	staff, err := s.staffRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthenticated(invalidCredentialsMsg)
	}

	if err := s.hasher.Compare(staff.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthenticated(invalidCredentialsMsg)
	}

	if !staff.IsActive {
		return nil, apperrors.Unauthenticated(invalidCredentialsMsg)
	}

	token, err := s.tokenRepo.GetOrCreate(ctx, staff.ID, uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &model.TokenResponse{Token: token}, nil
}

// Authenticate resolves a bearer token to an active staff member
func (s *Service) Authenticate(ctx context.Context, token string) (*model.StaffMember, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("missing token")
	}

	staff, err := s.tokenRepo.GetStaffByToken(ctx, token)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid token")
	}

	if !staff.IsActive {
		return nil, apperrors.Unauthenticated("invalid token")
	}
	return staff, nil
}

// Logout discards the caller's token row; the next login mints a new one
func (s *Service) Logout(ctx context.Context, staffID uuid.UUID) error {
	if err := s.tokenRepo.DeleteByStaff(ctx, staffID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
