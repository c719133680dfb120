package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatwidget/internal/logger"
	"github.com/edgard/chatwidget/internal/storage"
)

func backends(t *testing.T) map[string]storage.Backend {
	t.Helper()

	sqlite, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "widget.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]storage.Backend{
		"memory": storage.NewMemory(),
		"sqlite": sqlite,
	}
}

func TestBackendContract(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			alice := storage.Namespace(backend, "alice")
			bob := storage.Namespace(backend, "bob")

			_, ok, err := alice.GetItem(ctx, "session")
			require.NoError(t, err)
			assert.False(t, ok, "missing key must report not found")

			require.NoError(t, alice.SetItem(ctx, "session", "s-1"))
			require.NoError(t, alice.SetItem(ctx, "session", "s-2"))

			v, ok, err := alice.GetItem(ctx, "session")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "s-2", v, "SetItem must overwrite")

			_, ok, err = bob.GetItem(ctx, "session")
			require.NoError(t, err)
			assert.False(t, ok, "namespaces must not leak")

			require.NoError(t, alice.RemoveItem(ctx, "session"))
			require.NoError(t, alice.RemoveItem(ctx, "session"))
			_, ok, err = alice.GetItem(ctx, "session")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "widget.db")

	first, err := storage.OpenSQLite(path, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, storage.Namespace(first, "default").SetItem(ctx, "k", "v"))
	require.NoError(t, first.Close())

	second, err := storage.OpenSQLite(path, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	v, ok, err := storage.Namespace(second, "default").GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, second.RunMaintenance(ctx))
}

func TestMemoryClosed(t *testing.T) {
	t.Parallel()

	m := storage.NewMemory()
	require.NoError(t, m.Close())

	err := storage.Namespace(m, "x").SetItem(context.Background(), "k", "v")
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestNewDBRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := storage.NewDB("")
	assert.Error(t, err)
}
