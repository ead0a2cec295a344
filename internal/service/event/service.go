package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/repository"
)

// New builds an outbox event with a JSON payload. Repositories insert
// it inside the transaction of the state change it describes.
func New(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}, nil
}

// Service emits events that are not tied to another write
type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	evt, err := New(eventType, payload)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, evt)
}
