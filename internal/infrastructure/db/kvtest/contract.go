// Package kvtest holds the behaviour every ports.KVStore backend must share.
package kvtest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// Run executes the contract suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ports.KVStore) {
	t.Run("GetMissingReturnsNilNil", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Get(context.Background(), "absent")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("old")))
		require.NoError(t, s.Put(ctx, "k", []byte("new")))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("new"), v)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("v")))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("UpdateCreatesAndModifies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
			assert.Nil(t, cur)
			return []byte("1"), nil
		}))
		require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
			assert.Equal(t, []byte("1"), cur)
			return []byte("2"), nil
		}))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), v)
	})

	t.Run("UpdateNilLeavesValue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("keep")))
		require.NoError(t, s.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, nil }))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("keep"), v)
	})

	t.Run("UpdateErrorAborts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k", []byte("keep")))

		boom := errors.New("boom")
		err := s.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("lost"), boom })
		require.ErrorIs(t, err, boom)

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("keep"), v)
	})

	t.Run("ConcurrentUpdatesDoNotLoseWrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const workers = 10

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
					n := 0
					if cur != nil {
						var err error
						if n, err = strconv.Atoi(string(cur)); err != nil {
							return nil, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		v, err := s.Get(ctx, "counter")
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(workers), string(v))
	})
}
