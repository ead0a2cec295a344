package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/pkg/logger"
	"github.com/bloodlink/delivery-api/pkg/metrics"
)

// Prometheus collectors register globally, so all tests share one set.
var testMetrics = metrics.New("outbox_processor_test")

var testLogger = logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*model.OutboxEvent
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	f := &fakeOutboxRepo{events: make(map[uuid.UUID]*model.OutboxEvent)}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeOutboxRepo) Create(_ context.Context, evt *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[evt.ID] = evt
	return nil
}

func (f *fakeOutboxRepo) GetPendingWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var out []*model.OutboxEvent
	for _, e := range f.events {
		if len(out) >= limit {
			break
		}
		pending := e.Status == string(model.OutboxStatusPending) ||
			(e.Status == string(model.OutboxStatusFailed) && (e.RetryAt == nil || !e.RetryAt.After(now)))
		if pending {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return errors.New("not found")
	}
	e.Status = status
	e.ErrorMessage = errorMessage
	e.RetryAt = retryAt
	if status == string(model.OutboxStatusFailed) {
		e.RetryCount++
	}
	if status == string(model.OutboxStatusProcessed) {
		now := time.Now()
		e.ProcessedAt = &now
	}
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.events {
		if e.Status == string(model.OutboxStatusProcessed) && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeOutboxRepo) status(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id].Status
}

type fakeBroker struct {
	mu         sync.Mutex
	published  []string
	publishErr error
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, channel)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBroker) Close() error { return nil }

func (f *fakeBroker) channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

func pendingEvent(eventType string) *model.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{"delivery_id": uuid.New().String()})
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    string(model.OutboxStatusPending),
		CreatedAt: time.Now(),
	}
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}
}

func TestProcessEvents(t *testing.T) {
	evt := pendingEvent(model.EventDeliveryAccepted)
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{}

	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger, testMetrics)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []string{model.EventDeliveryAccepted}, broker.channels(),
		"events are published on their type channel")
	assert.Equal(t, string(model.OutboxStatusProcessed), repo.status(evt.ID))
}

func TestProcessEventsPublishFailure(t *testing.T) {
	evt := pendingEvent(model.EventDeliveryCreated)
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{publishErr: errors.New("redis gone")}

	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger, testMetrics)
	require.NoError(t, p.processEvents(context.Background()))

	repo.mu.Lock()
	stored := repo.events[evt.ID]
	repo.mu.Unlock()

	assert.Equal(t, string(model.OutboxStatusFailed), stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "redis gone")
	require.NotNil(t, stored.RetryAt, "a failed event must be scheduled for retry")
}

func TestFailedEventIsRetried(t *testing.T) {
	evt := pendingEvent(model.EventDeliveryCompleted)
	repo := newFakeOutboxRepo(evt)
	broker := &fakeBroker{publishErr: errors.New("redis gone")}

	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger, testMetrics)
	require.NoError(t, p.processEvents(context.Background()))
	assert.Equal(t, string(model.OutboxStatusFailed), repo.status(evt.ID))

	// Broker recovers; the failed event becomes due and drains.
	broker.mu.Lock()
	broker.publishErr = nil
	broker.mu.Unlock()
	repo.mu.Lock()
	repo.events[evt.ID].RetryAt = nil
	repo.mu.Unlock()

	require.NoError(t, p.processEvents(context.Background()))
	assert.Equal(t, string(model.OutboxStatusProcessed), repo.status(evt.ID))
}

func TestPruneProcessed(t *testing.T) {
	old := pendingEvent(model.EventStaffRegistered)
	repo := newFakeOutboxRepo(old)
	processedAt := time.Now().Add(-48 * time.Hour)
	repo.events[old.ID].Status = string(model.OutboxStatusProcessed)
	repo.events[old.ID].ProcessedAt = &processedAt

	cfg := testConfig()
	cfg.RetainFor = 24 * time.Hour
	p := NewOutboxProcessor(repo, &fakeBroker{}, cfg, testLogger, testMetrics)

	require.NoError(t, p.pruneProcessed(context.Background()))

	repo.mu.Lock()
	_, exists := repo.events[old.ID]
	repo.mu.Unlock()
	assert.False(t, exists, "processed events past retention are removed")
}

func TestConfigValidation(t *testing.T) {
	assert.Panics(t, func() {
		NewOutboxProcessor(newFakeOutboxRepo(), &fakeBroker{}, OutboxProcessorConfig{}, testLogger, testMetrics)
	})
}
