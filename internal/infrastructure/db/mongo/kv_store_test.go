package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/kvtest"
)

// These tests need a live server: MONGO_TEST_URI=mongodb://localhost:27017 go test ./...
func setupStore(t *testing.T) *KVStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{
		URI:            uri,
		Database:       fmt.Sprintf("rbac_test_%d", time.Now().UnixNano()),
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewKVStore(db)
}

func TestKVStore_Contract(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) ports.KVStore { return setupStore(t) })
}

func TestKVStore_Ping(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
