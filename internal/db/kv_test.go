package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the shared KV contract against a backend.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Put(ctx, "a", `{"x":1}`))
	require.NoError(t, kv.Put(ctx, "b", "two"))
	require.NoError(t, kv.Put(ctx, "a", `{"x":2}`))

	v, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"x":2}`, v)

	require.NoError(t, kv.Delete(ctx, "a", "b", "never-stored"))
	for _, k := range []string{"a", "b"} {
		_, ok, err := kv.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
	require.NoError(t, kv.Delete(ctx))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	kv := NewMemoryKV()
	assert.ErrorIs(t, kv.Put(ctx, "k", "v"), context.Canceled)
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ywc.db")
	kv, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	exerciseKV(t, kv)

	// Store state survives reopening the file.
	ctx := context.Background()
	s := NewStore(kv, nil)
	require.True(t, s.SaveQuarter(ctx, 4, 2024, sample("T-1")))
	require.NoError(t, kv.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	history := NewStore(reopened, nil).Quarters(ctx)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-Q4", history[0].Key)
}

func TestPostgresKV(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("skipping: database unreachable: %v", err)
	}
	defer pool.Close()
	require.NoError(t, ApplyMigrations(ctx, pool, nil))

	kv := NewPostgresKV(pool)
	t.Cleanup(func() { _ = kv.Delete(context.Background(), "a", "b") })
	exerciseKV(t, kv)
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_kv_slots.sql", files[0])
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := OpenBackend(ctx, BackendMemory, "", "", nil)
	require.NoError(t, err)
	defer mem.Close()
	assert.IsType(t, &MemoryKV{}, mem.KV)

	lite, err := OpenBackend(ctx, BackendSQLite, "", filepath.Join(t.TempDir(), "nested", "ywc.db"), nil)
	require.NoError(t, err)
	exerciseKV(t, lite.KV)
	lite.Close()

	_, err = OpenBackend(ctx, "redis", "", "", nil)
	assert.Error(t, err)
}
