package records

import (
	"context"
	"time"
)

// RecordType tags custom documents in the shared history store.
const RecordType = "CUSTOM_RECORD"

// StoredRecord is a caller-supplied document persisted with generated keys.
type StoredRecord struct {
	PK         string         `json:"pk"`
	SK         string         `json:"sk"`
	ID         string         `json:"id"`
	RecordType string         `json:"recordType"`
	CreatedAt  time.Time      `json:"createdAt"`
	Payload    map[string]any `json:"payload"`
}

// Repository appends custom documents to the history collaborator.
type Repository interface {
	AppendCustom(ctx context.Context, record StoredRecord) error
}
