package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

func (r *staffRepository) Create(ctx context.Context, staff *model.StaffMember) error {
	query := `
		INSERT INTO delivery_staff (
			id, email, password_hash, first_name, last_name, phone_number,
			address, gender, license_number, vehicle_type, vehicle_number,
			dob, email_confirmed, confirmation_token, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		staff.ID,
		staff.Email,
		staff.PasswordHash,
		staff.FirstName,
		staff.LastName,
		staff.PhoneNumber,
		staff.Address,
		staff.Gender,
		staff.LicenseNumber,
		staff.VehicleType,
		staff.VehicleNumber,
		staff.DOB,
		staff.EmailConfirmed,
		staff.ConfirmationToken,
		staff.IsActive,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already registered: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := `SELECT * FROM delivery_staff WHERE id = $1`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*model.StaffMember, error) {
	query := `SELECT * FROM delivery_staff WHERE email = $1`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, fmt.Errorf("failed to get staff member by email: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByConfirmationToken(ctx context.Context, token string) (*model.StaffMember, error) {
	query := `SELECT * FROM delivery_staff WHERE confirmation_token = $1`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, token); err != nil {
		return nil, fmt.Errorf("failed to get staff member by confirmation token: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByResetToken(ctx context.Context, token string) (*model.StaffMember, error) {
	query := `SELECT * FROM delivery_staff WHERE reset_token = $1`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, token); err != nil {
		return nil, fmt.Errorf("failed to get staff member by reset token: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *model.StaffMember) error {
	query := `
		UPDATE delivery_staff SET
			password_hash = $1,
			first_name = $2,
			last_name = $3,
			phone_number = $4,
			address = $5,
			gender = $6,
			license_number = $7,
			vehicle_type = $8,
			vehicle_number = $9,
			dob = $10,
			email_confirmed = $11,
			confirmation_token = $12,
			reset_token = $13,
			is_active = $14,
			updated_at = $15
		WHERE id = $16
	`

	result, err := r.db.ExecContext(ctx, query,
		staff.PasswordHash,
		staff.FirstName,
		staff.LastName,
		staff.PhoneNumber,
		staff.Address,
		staff.Gender,
		staff.LicenseNumber,
		staff.VehicleType,
		staff.VehicleNumber,
		staff.DOB,
		staff.EmailConfirmed,
		staff.ConfirmationToken,
		staff.ResetToken,
		staff.IsActive,
		time.Now(),
		staff.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("staff member not found")
	}
	return nil
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Dependent deliveries and their issues go with the row via FK cascades
	query := `DELETE FROM delivery_staff WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("staff member not found")
	}
	return nil
}
