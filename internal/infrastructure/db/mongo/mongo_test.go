package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions_Defaults(t *testing.T) {
	opts := clientOptions(Config{URI: "mongodb://localhost:27017"})

	require.NotNil(t, opts.AppName)
	assert.Equal(t, "rbac-accounts", *opts.AppName)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 10*time.Second, *opts.ConnectTimeout)
	assert.Nil(t, opts.MaxPoolSize)
	assert.Nil(t, opts.ServerSelectionTimeout)
}

func TestClientOptions_FromConfig(t *testing.T) {
	opts := clientOptions(Config{
		URI:                    "mongodb://db:27017",
		AppName:                "rbac-worker",
		ConnectTimeout:         2 * time.Second,
		ServerSelectionTimeout: time.Second,
		MaxPoolSize:            7,
	})

	assert.Equal(t, "rbac-worker", *opts.AppName)
	assert.Equal(t, 2*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, uint64(7), *opts.MaxPoolSize)
	assert.Equal(t, []string{"db:27017"}, opts.Hosts)
}

func TestConnect_RequiresDatabase(t *testing.T) {
	_, _, err := Connect(context.Background(), Config{URI: "mongodb://localhost:27017"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name is required")
}
