package historyrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// PostgresRepository implements the append-only history store using pgx.
//
// Expected schema:
//
//	CREATE TABLE fusion_history (
//	    pk          TEXT        NOT NULL,
//	    sk          TEXT        NOT NULL,
//	    id          TEXT        NOT NULL,
//	    record_type TEXT        NOT NULL,
//	    payload     JSONB       NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (pk, sk)
//	);
//	CREATE INDEX fusion_history_listing
//	    ON fusion_history (record_type, created_at DESC, id DESC);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const fusionRecordType = "FUSION_RECORD"

// Append persists a fusion record permanently. A record without an
// identifier is refused before any write is attempted.
func (r *PostgresRepository) Append(ctx context.Context, record fusion.Record) error {
	if record.ID == "" {
		return apperrors.Wrap("invalid_record", "fusion record requires a non-empty identifier", nil)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal fusion record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO fusion_history (pk, sk, id, record_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		fmt.Sprintf("FUSION#%s", record.ID),
		fmt.Sprintf("ITEM#%s", record.CreatedAt.UTC().Format(time.RFC3339Nano)),
		record.ID,
		fusionRecordType,
		payload,
		record.CreatedAt.UTC(),
	)
	return err
}

// List returns fusion records in reverse-chronological order with keyset
// pagination.
func (r *PostgresRepository) List(ctx context.Context, limit int, pageToken string) (fusion.HistoryPage, error) {
	limit = clampLimit(limit)

	var (
		rowsQuery string
		args      []any
	)
	if pageToken != "" {
		resume, err := decodeToken(pageToken)
		if err != nil {
			return fusion.HistoryPage{}, err
		}
		rowsQuery = `
			SELECT payload, created_at, id
			FROM fusion_history
			WHERE record_type = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		args = []any{fusionRecordType, resume.CreatedAt, resume.ID, limit}
	} else {
		rowsQuery = `
			SELECT payload, created_at, id
			FROM fusion_history
			WHERE record_type = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		args = []any{fusionRecordType, limit}
	}

	rows, err := r.pool.Query(ctx, rowsQuery, args...)
	if err != nil {
		return fusion.HistoryPage{}, err
	}
	defer rows.Close()

	var (
		items         []fusion.Record
		lastCreatedAt time.Time
		lastID        string
	)
	for rows.Next() {
		var (
			payload []byte
			record  fusion.Record
		)
		if err := rows.Scan(&payload, &lastCreatedAt, &lastID); err != nil {
			return fusion.HistoryPage{}, err
		}
		if err := json.Unmarshal(payload, &record); err != nil {
			return fusion.HistoryPage{}, fmt.Errorf("unmarshal fusion record: %w", err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return fusion.HistoryPage{}, err
	}

	page := fusion.HistoryPage{Items: items}
	if len(items) == limit {
		page.NextPageToken = encodeToken(cursor{CreatedAt: lastCreatedAt, ID: lastID})
	}
	return page, nil
}

// AppendCustom persists a caller-supplied document under its own keys.
func (r *PostgresRepository) AppendCustom(ctx context.Context, record records.StoredRecord) error {
	if record.ID == "" {
		return apperrors.Wrap("invalid_record", "custom record requires a non-empty identifier", nil)
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("marshal custom record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO fusion_history (pk, sk, id, record_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		record.PK,
		record.SK,
		record.ID,
		record.RecordType,
		payload,
		record.CreatedAt.UTC(),
	)
	return err
}

var (
	_ fusion.History     = (*PostgresRepository)(nil)
	_ records.Repository = (*PostgresRepository)(nil)
)
