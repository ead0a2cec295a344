package issue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/delivery-api/internal/model"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

var errNotFound = errors.New("not found")

type fakeDeliveryRepo struct {
	deliveries map[uuid.UUID]*model.Delivery
}

func (f *fakeDeliveryRepo) Create(_ context.Context, d *model.Delivery, _ *model.OutboxEvent) error {
	f.deliveries[d.ID] = d
	return nil
}

func (f *fakeDeliveryRepo) Get(_ context.Context, id uuid.UUID) (*model.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, errNotFound
	}
	return d, nil
}

func (f *fakeDeliveryRepo) GetVisible(_ context.Context, id, staffID uuid.UUID) (*model.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok || (d.StaffID != nil && *d.StaffID != staffID) {
		return nil, errNotFound
	}
	return d, nil
}

func (f *fakeDeliveryRepo) ListVisible(_ context.Context, _ uuid.UUID) ([]*model.Delivery, error) {
	return nil, nil
}

func (f *fakeDeliveryRepo) ListAccepted(_ context.Context, _ uuid.UUID) ([]*model.Delivery, error) {
	return nil, nil
}

func (f *fakeDeliveryRepo) Update(_ context.Context, _ *model.Delivery) error { return nil }
func (f *fakeDeliveryRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

func (f *fakeDeliveryRepo) Accept(_ context.Context, _, _ uuid.UUID, _ *model.OutboxEvent) (bool, error) {
	return false, nil
}

func (f *fakeDeliveryRepo) MarkPickedUp(_ context.Context, _ uuid.UUID, _ *model.OutboxEvent) (bool, error) {
	return false, nil
}

func (f *fakeDeliveryRepo) MarkCompleted(_ context.Context, _, _ uuid.UUID, _ *model.OutboxEvent) (bool, error) {
	return false, nil
}

// fakeIssueRepo mimics the join in the store: issues are only reachable
// through a delivery assigned to the caller.
type fakeIssueRepo struct {
	issues     map[uuid.UUID]*model.DeliveryIssue
	deliveries *fakeDeliveryRepo
}

func (f *fakeIssueRepo) Create(_ context.Context, issue *model.DeliveryIssue) error {
	f.issues[issue.ID] = issue
	return nil
}

func (f *fakeIssueRepo) Get(_ context.Context, id, staffID uuid.UUID) (*model.DeliveryIssue, error) {
	issue, ok := f.issues[id]
	if !ok {
		return nil, errNotFound
	}
	d, ok := f.deliveries.deliveries[issue.DeliveryID]
	if !ok || d.StaffID == nil || *d.StaffID != staffID {
		return nil, errNotFound
	}
	return issue, nil
}

func (f *fakeIssueRepo) ListForStaff(_ context.Context, staffID uuid.UUID) ([]*model.DeliveryIssue, error) {
	var out []*model.DeliveryIssue
	for _, issue := range f.issues {
		d, ok := f.deliveries.deliveries[issue.DeliveryID]
		if ok && d.StaffID != nil && *d.StaffID == staffID {
			out = append(out, issue)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeDeliveryRepo) {
	deliveries := &fakeDeliveryRepo{deliveries: make(map[uuid.UUID]*model.Delivery)}
	issues := &fakeIssueRepo{issues: make(map[uuid.UUID]*model.DeliveryIssue), deliveries: deliveries}
	return NewService(issues, deliveries), deliveries
}

func addDelivery(repo *fakeDeliveryRepo, staffID *uuid.UUID) *model.Delivery {
	d := &model.Delivery{
		Base:    model.Base{ID: uuid.New()},
		StaffID: staffID,
		Status:  model.DeliveryStatusInProgress,
		QRCode:  uuid.New().String(),
	}
	repo.deliveries[d.ID] = d
	return d
}

func TestReportIssue(t *testing.T) {
	svc, deliveries := newTestService()
	staffID := uuid.New()
	d := addDelivery(deliveries, &staffID)

	photo := "https://cdn.example.com/issues/1.jpg"
	issue, err := svc.Report(context.Background(), staffID, &model.ReportIssueRequest{
		DeliveryID:  d.ID,
		Description: "dropoff contact unreachable",
		PhotoURL:    &photo,
	})
	require.NoError(t, err)

	assert.Equal(t, staffID, issue.ReportedBy, "the reporter is always the caller")
	assert.Equal(t, d.ID, issue.DeliveryID)
	require.NotNil(t, issue.PhotoURL)
	assert.Equal(t, photo, *issue.PhotoURL)
}

func TestReportIssueInvisibleDelivery(t *testing.T) {
	svc, deliveries := newTestService()
	owner := uuid.New()
	d := addDelivery(deliveries, &owner)

	_, err := svc.Report(context.Background(), uuid.New(), &model.ReportIssueRequest{
		DeliveryID:  d.ID,
		Description: "vehicle breakdown",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestReportIssueUnknownDelivery(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Report(context.Background(), uuid.New(), &model.ReportIssueRequest{
		DeliveryID:  uuid.New(),
		Description: "vehicle breakdown",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestGetIssueOwnJobsOnly(t *testing.T) {
	svc, deliveries := newTestService()
	owner := uuid.New()
	d := addDelivery(deliveries, &owner)

	issue, err := svc.Report(context.Background(), owner, &model.ReportIssueRequest{
		DeliveryID:  d.ID,
		Description: "traffic delay",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), issue.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, got.ID)

	_, err = svc.Get(context.Background(), issue.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListForCaller(t *testing.T) {
	svc, deliveries := newTestService()
	owner := uuid.New()
	other := uuid.New()
	mine := addDelivery(deliveries, &owner)
	theirs := addDelivery(deliveries, &other)

	_, err := svc.Report(context.Background(), owner, &model.ReportIssueRequest{
		DeliveryID:  mine.ID,
		Description: "traffic delay",
	})
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), other, &model.ReportIssueRequest{
		DeliveryID:  theirs.ID,
		Description: "cooler temperature alarm",
	})
	require.NoError(t, err)

	issues, err := svc.ListForCaller(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, mine.ID, issues[0].DeliveryID)
}
