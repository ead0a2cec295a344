package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

// GetOrCreate returns the staff member's bearer token, minting the
// candidate only when no row exists yet. The no-op DO UPDATE keeps the
// stored token and makes RETURNING yield it, so a re-login always gets
// the same token even under concurrent calls.
func (r *tokenRepository) GetOrCreate(ctx context.Context, staffID uuid.UUID, token string) (string, error) {
	query := `
		INSERT INTO auth_tokens (staff_id, token, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (staff_id) DO UPDATE
		SET token = auth_tokens.token, updated_at = NOW()
		RETURNING token
	`

	var stored string
	if err := r.db.GetContext(ctx, &stored, query, staffID, token); err != nil {
		return "", fmt.Errorf("failed to upsert auth token: %w", err)
	}
	return stored, nil
}

func (r *tokenRepository) GetStaffByToken(ctx context.Context, token string) (*model.StaffMember, error) {
	query := `
		SELECT s.* FROM delivery_staff s
		JOIN auth_tokens t ON t.staff_id = s.id
		WHERE t.token = $1
	`

	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, token); err != nil {
		return nil, fmt.Errorf("failed to resolve auth token: %w", err)
	}
	return &staff, nil
}

func (r *tokenRepository) DeleteByStaff(ctx context.Context, staffID uuid.UUID) error {
	query := `DELETE FROM auth_tokens WHERE staff_id = $1`

	if _, err := r.db.ExecContext(ctx, query, staffID); err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}
