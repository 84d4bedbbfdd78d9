package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// Service stores caller-supplied documents.
type Service interface {
	Store(ctx context.Context, payload map[string]any) (StoredRecord, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires up the custom record domain.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "records.service"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Store assigns a generated identifier plus partition/sort keys and persists
// the document.
func (s *service) Store(ctx context.Context, payload map[string]any) (StoredRecord, error) {
	if len(payload) == 0 {
		return StoredRecord{}, apperrors.Wrap("invalid_input", "request body is required", nil)
	}

	id := s.newID()
	createdAt := s.now().UTC()
	record := StoredRecord{
		PK:         fmt.Sprintf("CUSTOM#%s", id),
		SK:         fmt.Sprintf("ITEM#%s", createdAt.Format(time.RFC3339Nano)),
		ID:         id,
		RecordType: RecordType,
		CreatedAt:  createdAt,
		Payload:    payload,
	}

	if err := s.repo.AppendCustom(ctx, record); err != nil {
		return StoredRecord{}, apperrors.Wrap("storage_error", "failed to store record", err)
	}
	s.logger.Info("custom record stored", "id", id)
	return record, nil
}
