package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/delivery-api/internal/model"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
	"github.com/bloodlink/delivery-api/pkg/security"
)

var errNotFound = errors.New("not found")

type fakeStaffRepo struct {
	staff map[uuid.UUID]*model.StaffMember
}

func (f *fakeStaffRepo) Create(_ context.Context, s *model.StaffMember) error {
	f.staff[s.ID] = s
	return nil
}

func (f *fakeStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.StaffMember, error) {
	s, ok := f.staff[id]
	if !ok {
		return nil, errNotFound
	}
	return s, nil
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*model.StaffMember, error) {
	for _, s := range f.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeStaffRepo) GetByConfirmationToken(_ context.Context, _ string) (*model.StaffMember, error) {
	return nil, errNotFound
}

func (f *fakeStaffRepo) GetByResetToken(_ context.Context, _ string) (*model.StaffMember, error) {
	return nil, errNotFound
}

func (f *fakeStaffRepo) Update(_ context.Context, s *model.StaffMember) error {
	f.staff[s.ID] = s
	return nil
}

func (f *fakeStaffRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.staff, id)
	return nil
}

// fakeTokenRepo mirrors the upsert semantics of the token table: the
// candidate token is only kept when the staff member has no row yet.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]string
	staff  *fakeStaffRepo
}

func (f *fakeTokenRepo) GetOrCreate(_ context.Context, staffID uuid.UUID, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.tokens[staffID]; ok {
		return existing, nil
	}
	f.tokens[staffID] = token
	return token, nil
}

func (f *fakeTokenRepo) GetStaffByToken(_ context.Context, token string) (*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for staffID, t := range f.tokens {
		if t == token {
			return f.staff.Get(context.Background(), staffID)
		}
	}
	return nil, errNotFound
}

func (f *fakeTokenRepo) DeleteByStaff(_ context.Context, staffID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, staffID)
	return nil
}

func newTestService(t *testing.T) (*Service, *model.StaffMember) {
	t.Helper()

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)

	staff := &model.StaffMember{
		Base:         model.Base{ID: uuid.New()},
		Email:        "driver@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}

	staffRepo := &fakeStaffRepo{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	tokenRepo := &fakeTokenRepo{tokens: make(map[uuid.UUID]string), staff: staffRepo}
	return NewService(staffRepo, tokenRepo, hasher), staff
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token, "re-login must return the existing token")
}

func TestLoginFailures(t *testing.T) {
	svc, staff := newTestService(t)

	tests := []struct {
		name     string
		setup    func()
		email    string
		password string
	}{
		{name: "unknown email", email: "other@example.com", password: "s3cret-pass"},
		{name: "wrong password", email: "driver@example.com", password: "wrong-pass"},
		{
			name:     "inactive account",
			setup:    func() { staff.IsActive = false },
			email:    "driver@example.com",
			password: "s3cret-pass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
			assert.Equal(t, "invalid credentials", apperrors.FromError(err).Message,
				"every login failure must read the same")
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc, staff := newTestService(t)

	resp, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)

	resolved, err := svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, resolved.ID)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "never-issued")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))

	_, err = svc.Authenticate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestAuthenticateDeactivatedStaff(t *testing.T) {
	svc, staff := newTestService(t)

	resp, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)

	staff.IsActive = false
	_, err = svc.Authenticate(context.Background(), resp.Token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestLogout(t *testing.T) {
	svc, staff := newTestService(t)

	resp, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), staff.ID))

	_, err = svc.Authenticate(context.Background(), resp.Token)
	require.Error(t, err)

	// A fresh login mints a new token
	again, err := svc.Login(context.Background(), "driver@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token, again.Token)
}
