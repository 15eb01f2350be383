package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/kvtest"
)

func setupStore(t *testing.T) *KVStore {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewKVStore(db)
}

func TestKVStore_Contract(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) ports.KVStore { return setupStore(t) })
}

func TestKVStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbac.db")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewKVStore(db).Put(ctx, "rbac_users_v1", []byte(`[]`)))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewKVStore(db)
	v, err := s.Get(ctx, "rbac_users_v1")
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), v)
	require.NoError(t, s.Ping(ctx))
}
