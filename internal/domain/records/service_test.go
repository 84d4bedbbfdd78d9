package records

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_AssignsIdentifierAndKeys(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo, newTestLogger()).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "fixed-id" }

	stored, err := svc.Store(context.Background(), map[string]any{"note": "hello"})
	require.NoError(t, err)
	require.Equal(t, "fixed-id", stored.ID)
	require.Equal(t, "CUSTOM#fixed-id", stored.PK)
	require.True(t, strings.HasPrefix(stored.SK, "ITEM#2025-06-15T12:00:00"))
	require.Equal(t, RecordType, stored.RecordType)
	require.Equal(t, map[string]any{"note": "hello"}, stored.Payload)
	require.Equal(t, stored, repo.stored)
}

func TestStore_RejectsEmptyPayload(t *testing.T) {
	svc := NewService(&stubRepository{}, newTestLogger())

	for _, payload := range []map[string]any{nil, {}} {
		_, err := svc.Store(context.Background(), payload)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, "invalid_input"))
	}
}

func TestStore_WrapsRepositoryFailure(t *testing.T) {
	repo := &stubRepository{err: errors.New("write refused")}
	svc := NewService(repo, newTestLogger())

	_, err := svc.Store(context.Background(), map[string]any{"note": "hello"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "storage_error"))
}

type stubRepository struct {
	stored StoredRecord
	err    error
}

func (s *stubRepository) AppendCustom(_ context.Context, record StoredRecord) error {
	if s.err != nil {
		return s.err
	}
	s.stored = record
	return nil
}
