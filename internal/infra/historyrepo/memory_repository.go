package historyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// MemoryRepository is an in-process history store for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	items   []fusion.Record
	customs []records.StoredRecord
}

// NewMemoryRepository constructs a history store backed by process memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append implements fusion.History.
func (r *MemoryRepository) Append(_ context.Context, record fusion.Record) error {
	if record.ID == "" {
		return apperrors.Wrap("invalid_record", "fusion record requires a non-empty identifier", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, record)
	return nil
}

// List implements fusion.History with the same ordering and cursor contract
// as the Postgres repository.
func (r *MemoryRepository) List(_ context.Context, limit int, pageToken string) (fusion.HistoryPage, error) {
	limit = clampLimit(limit)

	var resume *cursor
	if pageToken != "" {
		decoded, err := decodeToken(pageToken)
		if err != nil {
			return fusion.HistoryPage{}, err
		}
		resume = &decoded
	}

	r.mu.RLock()
	sorted := make([]fusion.Record, len(r.items))
	copy(sorted, r.items)
	r.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	start := 0
	if resume != nil {
		for i, record := range sorted {
			if record.CreatedAt.Before(resume.CreatedAt) ||
				(record.CreatedAt.Equal(resume.CreatedAt) && record.ID < resume.ID) {
				start = i
				break
			}
			start = len(sorted)
		}
	}

	end := start + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	page := fusion.HistoryPage{Items: sorted[start:end]}
	if end-start == limit && end > start {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeToken(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// AppendCustom implements records.Repository.
func (r *MemoryRepository) AppendCustom(_ context.Context, record records.StoredRecord) error {
	if record.ID == "" {
		return apperrors.Wrap("invalid_record", "custom record requires a non-empty identifier", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customs = append(r.customs, record)
	return nil
}

// CustomCount reports the number of stored custom records (test hook).
func (r *MemoryRepository) CustomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.customs)
}

var (
	_ fusion.History     = (*MemoryRepository)(nil)
	_ records.Repository = (*MemoryRepository)(nil)
)
