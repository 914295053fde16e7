package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqr-dev/mediqr/domain"
)

func newStoreForTest(t *testing.T) *MemorySessionStore {
	t.Helper()
	store := NewMemorySessionStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sessionExpiringIn(id, patientID string, ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:         id,
		PatientID:  patientID,
		AccessType: domain.AccessTypeView,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	session := sessionExpiringIn("sess-1", "patient-1", time.Hour)
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", got.PatientID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	// A row whose expiry has passed is absent on read even if eviction has
	// not run yet.
	session := sessionExpiringIn("sess-1", "patient-1", 30*time.Millisecond)
	require.NoError(t, store.Save(ctx, session))

	_, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	found, err := store.FindActiveByPatient(ctx, "patient-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStoreRejectsDeadRows(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	session := sessionExpiringIn("sess-1", "patient-1", -time.Minute)
	require.NoError(t, store.Save(ctx, session))

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 0, store.Count(ctx))
}

func TestMemoryStoreFindActiveByPatient(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sessionExpiringIn("sess-1", "patient-1", time.Hour)))
	require.NoError(t, store.Save(ctx, sessionExpiringIn("sess-2", "patient-2", time.Hour)))

	found, err := store.FindActiveByPatient(ctx, "patient-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "sess-1", found.ID)

	found, err = store.FindActiveByPatient(ctx, "patient-3")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sessionExpiringIn("sess-1", "patient-1", time.Hour)))

	removed, err := store.Delete(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	removed, err = store.Delete(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStoreCount(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	assert.Equal(t, 0, store.Count(ctx))
	require.NoError(t, store.Save(ctx, sessionExpiringIn("sess-1", "patient-1", time.Hour)))
	require.NoError(t, store.Save(ctx, sessionExpiringIn("sess-2", "patient-2", time.Hour)))
	assert.Equal(t, 2, store.Count(ctx))
}
