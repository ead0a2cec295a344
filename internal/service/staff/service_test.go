package staff

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/event"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
	"github.com/bloodlink/delivery-api/pkg/logger"
	"github.com/bloodlink/delivery-api/pkg/security"
)

var errNotFound = errors.New("not found")

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[uuid.UUID]*model.StaffMember
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[uuid.UUID]*model.StaffMember)}
}

func (f *fakeStaffRepo) Create(_ context.Context, s *model.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.staff[s.ID] = &cp
	return nil
}

func (f *fakeStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.staff[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.staff {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeStaffRepo) GetByConfirmationToken(_ context.Context, token string) (*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.staff {
		if s.ConfirmationToken != nil && *s.ConfirmationToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeStaffRepo) GetByResetToken(_ context.Context, token string) (*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.staff {
		if s.ResetToken != nil && *s.ResetToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeStaffRepo) Update(_ context.Context, s *model.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.staff[s.ID]; !ok {
		return errNotFound
	}
	cp := *s
	f.staff[s.ID] = &cp
	return nil
}

func (f *fakeStaffRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.staff, id)
	return nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, evt *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ string, _ *string, _ *time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// fakeEmailService records sends on a channel so tests can wait for
// the asynchronous confirmation dispatch.
type fakeEmailService struct {
	sent    chan string
	sendErr error
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{sent: make(chan string, 4)}
}

func (f *fakeEmailService) SendConfirmation(to, _ string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- to
	return nil
}

func (f *fakeEmailService) SendPasswordReset(to, _ string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- to
	return nil
}

func newTestService() (*Service, *fakeStaffRepo, *fakeOutboxRepo, *fakeEmailService) {
	repo := newFakeStaffRepo()
	outbox := &fakeOutboxRepo{}
	emailSvc := newFakeEmailService()
	testLogger := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, security.NewBcryptHasher(4), emailSvc, event.NewService(outbox), testLogger)
	return svc, repo, outbox, emailSvc
}

func validRegisterRequest() *model.RegisterStaffRequest {
	return &model.RegisterStaffRequest{
		Email:         "driver@example.com",
		Password:      "s3cret-pass",
		FirstName:     "Dana",
		LastName:      "Reyes",
		PhoneNumber:   "+441632960000",
		LicenseNumber: "DL-44781",
		VehicleType:   "motorbike",
		VehicleNumber: "LD19 XYZ",
		DOB:           "1992-04-17",
	}
}

func TestRegister(t *testing.T) {
	svc, repo, outbox, emailSvc := newTestService()

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.False(t, staff.IsActive)
	assert.False(t, staff.EmailConfirmed)
	require.NotNil(t, staff.ConfirmationToken)
	assert.NotEqual(t, "s3cret-pass", staff.PasswordHash)
	assert.Equal(t, model.GenderOther, staff.Gender, "missing gender defaults to other")
	require.NotNil(t, staff.DOB)
	assert.Equal(t, 1992, staff.DOB.Year())

	stored, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.Equal(t, staff.Email, stored.Email)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventStaffRegistered, outbox.events[0].EventType)

	select {
	case to := <-emailSvc.sent:
		assert.Equal(t, staff.Email, to)
	case <-time.After(time.Second):
		t.Fatal("confirmation email was never dispatched")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterBadDOB(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := validRegisterRequest()
	req.DOB = "17/04/1992"

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestRegisterEmailFailureDoesNotBlock(t *testing.T) {
	svc, repo, _, emailSvc := newTestService()
	emailSvc.sendErr = errors.New("smtp down")

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err, "a failed confirmation send must not fail registration")

	_, err = repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
}

func TestConfirmEmail(t *testing.T) {
	svc, repo, _, _ := newTestService()

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	token := *staff.ConfirmationToken

	require.NoError(t, svc.ConfirmEmail(context.Background(), token))

	activated, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.True(t, activated.EmailConfirmed)
	assert.Nil(t, activated.ConfirmationToken)

	// A consumed token fails exactly like an unknown one
	err = svc.ConfirmEmail(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, "invalid token", apperrors.FromError(err).Message)
}

func TestConfirmEmailUnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.ConfirmEmail(context.Background(), "never-issued")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, "invalid token", apperrors.FromError(err).Message)
}

func TestUpdateSelf(t *testing.T) {
	svc, _, _, _ := newTestService()

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	phone := "+441632960123"
	vehicle := "van"
	updated, err := svc.UpdateSelf(context.Background(), staff.ID, &model.UpdateStaffRequest{
		PhoneNumber: &phone,
		VehicleType: &vehicle,
	})
	require.NoError(t, err)

	assert.Equal(t, phone, updated.PhoneNumber)
	assert.Equal(t, vehicle, updated.VehicleType)
	assert.Equal(t, staff.FirstName, updated.FirstName, "unpatched fields keep their value")
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _, emailSvc := newTestService()

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err, "unknown emails must not be distinguishable")

	select {
	case <-emailSvc.sent:
		t.Fatal("no email should be sent for an unknown address")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestPasswordResetKeepsTokenOnSendFailure(t *testing.T) {
	svc, repo, _, emailSvc := newTestService()

	emailSvc.sendErr = errors.New("smtp down")

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	err = svc.RequestPasswordReset(context.Background(), staff.Email)
	require.NoError(t, err, "a send failure must not be distinguishable from success")

	stored, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ResetToken, "the stored token must survive a send failure")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, _, _ := newTestService()

	staff, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), staff.Email))

	stored, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), *stored.ResetToken, "brand-new-pass"))

	after, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.Nil(t, after.ResetToken)

	hasher := security.NewBcryptHasher(4)
	assert.NoError(t, hasher.Compare(after.PasswordHash, "brand-new-pass"))
	assert.Error(t, hasher.Compare(after.PasswordHash, "s3cret-pass"))
}

func TestConfirmPasswordResetUnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.ConfirmPasswordReset(context.Background(), "never-issued", "brand-new-pass")
	require.Error(t, err)
	assert.Equal(t, "invalid token", apperrors.FromError(err).Message)
}
