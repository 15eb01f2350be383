package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/kvtest"
)

func TestKVStore_Contract(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) ports.KVStore { return NewKVStore() })
}

func TestKVStore_ReturnsCopies(t *testing.T) {
	s := NewKVStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'X'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), v)

	v[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	require.Equal(t, []byte("abc"), again)
	require.NoError(t, s.Ping(ctx))
}
