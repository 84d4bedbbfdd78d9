package fusioncache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starfuse/starfuse/internal/domain/fusion"
)

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	record := fusion.Record{ID: "r1", Version: fusion.SchemaVersion}

	require.NoError(t, store.Put(context.Background(), "luke", record, time.Minute))

	got, ok, err := store.Get(context.Background(), "luke")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, got)
}

func TestMemoryStore_MissingKey(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_ExpiredEntryIsAbsent(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(context.Background(), "luke", fusion.Record{ID: "r1"}, 30*time.Minute))

	current = current.Add(29 * time.Minute)
	_, ok, err := store.Get(context.Background(), "luke")
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(time.Minute)
	_, ok, err = store.Get(context.Background(), "luke")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Put(context.Background(), "luke", fusion.Record{ID: "first"}, time.Minute))
	require.NoError(t, store.Put(context.Background(), "luke", fusion.Record{ID: "second"}, time.Minute))

	got, ok, err := store.Get(context.Background(), "luke")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", got.ID)
}
