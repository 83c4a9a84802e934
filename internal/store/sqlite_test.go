package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	return s
}

func TestKeyLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	k, err := s.CreateKey(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, k.Key)
	assert.Equal(t, "alice", k.DeveloperName)
	assert.True(t, k.Enabled)

	got, err := s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.DeveloperName)
	assert.Zero(t, got.UsageCount)

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, s.SetKeyEnabled(ctx, k.Key, false))
	got, err = s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, s.DeleteKey(ctx, k.Key))
	_, err = s.GetKey(ctx, k.Key)
	assert.Error(t, err)
}

func TestNewULID_EntropyNotDerivedFromTimestamp(t *testing.T) {
	// The first 10 characters of a ULID encode the timestamp, which is
	// public in the key. Two keys minted at the exact same instant must
	// still differ in their entropy portion, or knowing the creation time
	// would be enough to reconstruct the key.
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	a := newULIDAt(ts)
	b := newULIDAt(ts)

	assert.Equal(t, a[:10], b[:10])
	assert.NotEqual(t, a, b)
}

func TestSetKeyEnabled_UnknownKey(t *testing.T) {
	s := setupTestStore(t)
	err := s.SetKeyEnabled(context.Background(), "nope", true)
	assert.ErrorContains(t, err, "key not found")
}

func TestAuthorize(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	k, err := s.CreateKey(ctx, "bob")
	require.NoError(t, err)

	t.Run("valid key increments usage", func(t *testing.T) {
		developer, err := s.Authorize(ctx, k.Key)
		require.NoError(t, err)
		assert.Equal(t, "bob", developer)

		got, err := s.GetKey(ctx, k.Key)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.UsageCount)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := s.Authorize(ctx, "no-such-key")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("disabled key does not charge usage", func(t *testing.T) {
		require.NoError(t, s.SetKeyEnabled(ctx, k.Key, false))

		_, err := s.Authorize(ctx, k.Key)
		assert.ErrorIs(t, err, ErrUnauthorized)

		got, err := s.GetKey(ctx, k.Key)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.UsageCount)
	})
}

func TestAuthorize_ConcurrentIncrements(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	k, err := s.CreateKey(ctx, "carol")
	require.NoError(t, err)

	const calls = 20
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Authorize(ctx, k.Key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.EqualValues(t, calls, got.UsageCount)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}
