package fusioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/starfuse/starfuse/internal/domain/fusion"
)

// envelope wraps a cached record with its absolute expiry instant. The
// backing store also expires the key server-side, but reads enforce the
// instant themselves so a lagging eviction can never resurrect an entry.
type envelope struct {
	Record    fusion.Record `json:"record"`
	ExpiresAt int64         `json:"expiresAt"`
}

// ValkeyStore persists fusion cache entries in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	now    func() time.Time
}

// NewValkeyStore constructs a cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "fusion"
	}
	return &ValkeyStore{client: client, prefix: prefix, now: time.Now}
}

// Get returns the cached record when its expiry instant is still in the
// future. Storage faults surface as errors; the caller treats them as a miss.
func (s *ValkeyStore) Get(ctx context.Context, key string) (fusion.Record, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return fusion.Record{}, false, nil
		}
		return fusion.Record{}, false, err
	}
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fusion.Record{}, false, err
	}
	if env.ExpiresAt <= s.now().Unix() {
		return fusion.Record{}, false, nil
	}
	return env.Record, true, nil
}

// Put stores the record under the normalized key, unconditionally
// overwriting any previous entry.
func (s *ValkeyStore) Put(ctx context.Context, key string, record fusion.Record, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	env := envelope{
		Record:    record,
		ExpiresAt: s.now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload)).Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ fusion.Cache = (*ValkeyStore)(nil)
