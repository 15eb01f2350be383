package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/kvtest"
)

func setupStore(t *testing.T) (*KVStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewKVStore(client), mr
}

func TestKVStore_Contract(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) ports.KVStore {
		s, _ := setupStore(t)
		return s
	})
}

func TestKVStore_KeyPrefix(t *testing.T) {
	s, mr := setupStore(t)
	require.NoError(t, s.Put(context.Background(), "rbac_session_v1", []byte("x")))

	got, err := mr.Get("rbac:rbac_session_v1")
	require.NoError(t, err)
	require.Equal(t, "x", got)
}

func TestKVStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", []byte("a")))

	calls := 0
	err := s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			// Another client writes between WATCH and EXEC.
			other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer other.Close()
			require.NoError(t, other.Set(ctx, "rbac:k", "b", 0).Err())
		}
		return append(cur, '!'), nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("b!"), v)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
